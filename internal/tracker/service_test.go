package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/metrics"
	"github.com/adspot/adspot/internal/models"
	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/window"
)

var adWindow = window.Window{Title: "Advertisement", ProcessName: "Spotify.exe"}

type fakeInspector struct {
	mu      sync.Mutex
	windows []window.Window
}

func (f *fakeInspector) set(windows ...window.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = windows
}

func (f *fakeInspector) Snapshot() ([]window.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]window.Window(nil), f.windows...), nil
}

func (f *fakeInspector) Name() string { return "fake" }
func (f *fakeInspector) Close() error { return nil }

type fakeDevice struct {
	mu        sync.Mutex
	muted     bool
	failReads bool
	writes    int
}

func (d *fakeDevice) isMuted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

func (d *fakeDevice) setFailing(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failReads = fail
}

type fakeEndpoint struct{ dev *fakeDevice }

func (e *fakeEndpoint) Muted() (bool, error) {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	if e.dev.failReads {
		return false, audio.Stale(errors.New("device invalidated"))
	}
	return e.dev.muted, nil
}

func (e *fakeEndpoint) SetMuted(muted bool) error {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	e.dev.muted = muted
	e.dev.writes++
	return nil
}

func (e *fakeEndpoint) Release() error { return nil }

type fakeBackend struct{ dev *fakeDevice }

func (b *fakeBackend) Acquire() (audio.Endpoint, error) { return &fakeEndpoint{dev: b.dev}, nil }
func (b *fakeBackend) Name() string                     { return "fake" }
func (b *fakeBackend) Close() error                     { return nil }

type fakeRecorder struct {
	mu     sync.Mutex
	events []*models.MuteEvent
	errs   []*models.ErrorLog
}

func (r *fakeRecorder) CreateMuteEvent(event *models.MuteEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRecorder) CreateErrorLog(errorLog *models.ErrorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, errorLog)
	return nil
}

func (r *fakeRecorder) eventStates() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make([]bool, 0, len(r.events))
	for _, e := range r.events {
		states = append(states, e.Muted)
	}
	return states
}

func (r *fakeRecorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type harness struct {
	svc       *Service
	inspector *fakeInspector
	device    *fakeDevice
	recorder  *fakeRecorder
	metrics   *metrics.Metrics
	builds    int
	result    error
	mu        sync.Mutex
}

func newHarness(t *testing.T, modify func(*config.Config)) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Monitor.PollInterval = 5 * time.Millisecond
	if modify != nil {
		modify(cfg)
	}

	h := &harness{
		inspector: &fakeInspector{},
		device:    &fakeDevice{},
		recorder:  &fakeRecorder{},
		metrics:   metrics.New(),
	}
	factory := func() (window.Inspector, audio.Backend, error) {
		h.mu.Lock()
		h.builds++
		h.mu.Unlock()
		return h.inspector, &fakeBackend{dev: h.device}, nil
	}
	h.svc = NewService(cfg, h.recorder, factory, h.metrics, nil)
	return h
}

// start runs the service loop and returns a channel that is closed when
// Start returns; the result is kept in h.result.
func (h *harness) start(t *testing.T) <-chan struct{} {
	t.Helper()

	done := make(chan struct{})
	go func() {
		err := h.svc.Start(context.Background())
		h.mu.Lock()
		h.result = err
		h.mu.Unlock()
		close(done)
	}()
	require.Eventually(t, func() bool { return h.svc.Status().RunID != "" }, 2*time.Second, time.Millisecond)

	t.Cleanup(func() {
		h.svc.Stop()
		<-done
	})
	return done
}

func TestStartFactoryFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	factory := func() (window.Inspector, audio.Backend, error) {
		return nil, nil, errors.New("no audio")
	}
	svc := NewService(config.Default(), recorder, factory, nil, nil)

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio")
	assert.False(t, svc.IsRunning())
	require.Equal(t, 1, recorder.errorCount())
	assert.Equal(t, "init", recorder.errs[0].Source)
}

func TestMutesWhileTriggerPresent(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.SetEnabled(true)
	h.start(t)

	h.inspector.set(adWindow, window.Window{Title: "Inbox", ProcessName: "mail.exe"})
	require.Eventually(t, h.device.isMuted, 2*time.Second, time.Millisecond)

	h.inspector.set(window.Window{Title: "Spotify Premium", ProcessName: "Spotify.exe"})
	require.Eventually(t, func() bool { return !h.device.isMuted() }, 2*time.Second, time.Millisecond)

	assert.Equal(t, []bool{true, false}, h.recorder.eventStates())

	status := h.svc.Status()
	assert.True(t, status.Running)
	assert.False(t, status.Muted)
	assert.False(t, status.TriggerActive)
	assert.NotZero(t, status.Ticks)
	assert.Equal(t, "fake", status.Backend)

	h.recorder.mu.Lock()
	assert.Equal(t, status.RunID, h.recorder.events[0].RunID)
	h.recorder.mu.Unlock()

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MuteTransitions.WithLabelValues("muted")))
}

func TestDisabledDoesNotTick(t *testing.T) {
	h := newHarness(t, nil)
	h.inspector.set(adWindow)
	h.start(t)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, h.device.isMuted())
	assert.Zero(t, h.svc.Status().Ticks)
}

func TestDisableReleasesMute(t *testing.T) {
	h := newHarness(t, nil)
	h.inspector.set(adWindow)
	h.start(t)

	h.svc.SetEnabled(true)
	require.Eventually(t, h.device.isMuted, 2*time.Second, time.Millisecond)

	h.svc.SetEnabled(false)
	require.Eventually(t, func() bool { return !h.device.isMuted() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []bool{true, false}, h.recorder.eventStates())
}

func TestStopReleasesMute(t *testing.T) {
	h := newHarness(t, nil)
	h.inspector.set(adWindow)
	h.svc.SetEnabled(true)
	done := h.start(t)

	require.Eventually(t, h.device.isMuted, 2*time.Second, time.Millisecond)

	h.svc.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	h.mu.Lock()
	assert.NoError(t, h.result)
	h.mu.Unlock()
	assert.False(t, h.device.isMuted())
	assert.False(t, h.svc.IsRunning())
}

func TestRestart(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)
	first := h.svc.Status().RunID

	require.NoError(t, h.svc.Restart(context.Background()))

	assert.NotEqual(t, first, h.svc.Status().RunID)
	h.mu.Lock()
	assert.Equal(t, 2, h.builds)
	h.mu.Unlock()
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.MonitorStarts))
}

func TestRestartNotRunning(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.svc.Restart(context.Background()), ErrNotRunning)
}

func TestStartTwice(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)
	assert.Error(t, h.svc.Start(context.Background()))
}

func TestErrorPersistenceIsRateLimited(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Errors.LogInterval = time.Hour
		c.Errors.LogBurst = 2
	})
	h.device.setFailing(true)
	h.svc.SetEnabled(true)
	h.start(t)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.ErrorsDropped) >= 3
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 2, h.recorder.errorCount())
	assert.GreaterOrEqual(t, testutil.ToFloat64(h.metrics.TickErrors.WithLabelValues("device_unavailable")), 5.0)
	assert.Contains(t, h.svc.Status().LastError, "audio device unavailable")
}

func TestRecoversAfterDeviceReturns(t *testing.T) {
	h := newHarness(t, nil)
	h.device.setFailing(true)
	h.inspector.set(adWindow)
	h.svc.SetEnabled(true)
	h.start(t)

	require.Eventually(t, func() bool { return h.svc.Status().LastError != "" }, 2*time.Second, time.Millisecond)
	assert.False(t, h.device.isMuted())

	h.device.setFailing(false)
	require.Eventually(t, h.device.isMuted, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return h.svc.Status().LastError == "" }, 2*time.Second, time.Millisecond)
}
