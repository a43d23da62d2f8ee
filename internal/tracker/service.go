// Package tracker hosts the monitor: it owns the OS thread the monitor runs
// on, drives the poll cadence and records what the monitor does.
package tracker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/metrics"
	"github.com/adspot/adspot/internal/models"
	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/monitor"
	"github.com/adspot/adspot/pkg/window"
)

// ErrNotRunning is returned by Restart when the service loop is not active.
var ErrNotRunning = errors.New("tracker is not running")

// Factory creates the platform inspector and audio backend. It is called on
// the service's locked OS thread, so per-thread initialization done inside
// it belongs to the thread that runs every tick.
type Factory func() (window.Inspector, audio.Backend, error)

// Recorder persists mute transitions and errors. *database.Repository
// satisfies it.
type Recorder interface {
	CreateMuteEvent(event *models.MuteEvent) error
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// Status is a point-in-time view of the service.
type Status struct {
	Running       bool      `json:"running"`
	Enabled       bool      `json:"enabled"`
	TriggerActive bool      `json:"trigger_active"`
	Muted         bool      `json:"muted"`
	Ticks         uint64    `json:"ticks"`
	LastTick      time.Time `json:"last_tick"`
	LastError     string    `json:"last_error,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	Inspector     string    `json:"inspector,omitempty"`
	Backend       string    `json:"backend,omitempty"`
	Target        string    `json:"target"`
	TriggerTitle  string    `json:"trigger_title"`
	StartedAt     time.Time `json:"started_at"`
}

type Service struct {
	config  *config.Config
	repo    Recorder
	factory Factory
	metrics *metrics.Metrics
	logger  *zap.Logger
	limiter *rate.Limiter

	mu     sync.RWMutex
	status Status

	wake     chan struct{}
	restarts chan chan error
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{} // closed when the current loop exits

	// Loop goroutine only.
	monitor *monitor.Monitor
	holding bool
	backend string
}

// NewService creates a service. repo may be nil to skip persistence.
func NewService(cfg *config.Config, repo Recorder, factory Factory, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		config:  cfg,
		repo:    repo,
		factory: factory,
		metrics: m,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.Errors.LogInterval), cfg.Errors.LogBurst),
		status: Status{
			Target:       cfg.Monitor.TargetExecutable,
			TriggerTitle: cfg.Monitor.TriggerTitle,
		},
		wake:     make(chan struct{}, 1),
		restarts: make(chan chan error),
		stopChan: make(chan struct{}),
	}
}

// Start builds the monitor and runs the poll loop until ctx is done or Stop
// is called. It blocks. A monitor that cannot be built on startup is
// returned as an error without entering the loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return errors.New("tracker is already running")
	}
	s.status.Running = true
	s.status.StartedAt = time.Now()
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.status.Running = false
		s.mu.Unlock()
		close(done)
	}()

	// COM state and the endpoint are bound to this thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := s.build(); err != nil {
		s.logger.Error("failed to start monitor", zap.Error(err))
		s.storeError("init", err)
		return err
	}
	defer s.teardown()

	s.logger.Info("Starting monitor",
		zap.Duration("poll_interval", s.config.Monitor.PollInterval),
		zap.String("target", s.config.Monitor.TargetExecutable),
		zap.String("trigger", s.config.Monitor.TriggerTitle),
		zap.Bool("enabled", s.Enabled()),
	)

	ticker := time.NewTicker(s.config.Monitor.PollInterval)
	defer ticker.Stop()

	if s.Enabled() {
		s.tick()
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Monitor stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			s.logger.Info("Monitor stopped")
			return nil

		case <-s.wake:
			if !s.Enabled() {
				s.release()
			}

		case reply := <-s.restarts:
			reply <- s.restart()

		case <-ticker.C:
			if s.Enabled() {
				s.tick()
			}
		}
	}
}

// Stop ends the loop started by Start.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// IsRunning reports whether the loop is active.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Running
}

// Enabled reports whether ticks currently run.
func (s *Service) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Enabled
}

// SetEnabled switches monitoring on or off. Switching off releases a mute
// adspot applied, on the loop's thread.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.status.Enabled != enabled
	s.status.Enabled = enabled
	s.mu.Unlock()

	s.metrics.SetEnabled(enabled)
	if !changed {
		return
	}
	s.logger.Info("Monitoring switched", zap.Bool("enabled", enabled))

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Restart drops the monitor and builds a new one on the loop's thread.
func (s *Service) Restart(ctx context.Context) error {
	s.mu.RLock()
	running, done := s.status.Running, s.done
	s.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}

	reply := make(chan error, 1)
	select {
	case s.restarts <- reply:
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a copy of the current status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Service) build() error {
	inspector, backend, err := s.factory()
	if err != nil {
		return errors.Wrap(err, "failed to create platform integrations")
	}

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))

	m, err := monitor.New(s.config.TriggerConfig(), inspector, backend,
		monitor.WithLogger(logger.Named("monitor")),
		monitor.WithMuteObserver(s.onTransition),
	)
	if err != nil {
		if cerr := backend.Close(); cerr != nil {
			logger.Debug("failed to close audio backend", zap.Error(cerr))
		}
		if cerr := inspector.Close(); cerr != nil {
			logger.Debug("failed to close inspector", zap.Error(cerr))
		}
		return err
	}

	s.monitor = m
	s.holding = false
	s.backend = backend.Name()
	s.metrics.MonitorStarts.Inc()

	muted, err := m.Muted()
	if err != nil {
		logger.Debug("initial mute read failed", zap.Error(err))
	}

	s.mu.Lock()
	s.status.RunID = runID
	s.status.Inspector = inspector.Name()
	s.status.Backend = s.backend
	s.status.Muted = muted
	s.mu.Unlock()
	s.metrics.Muted.Set(boolValue(muted))

	return nil
}

func (s *Service) tick() {
	if s.monitor == nil {
		// A failed restart left no monitor; keep trying at the poll cadence.
		if err := s.build(); err != nil {
			s.recordTickError(err, 0)
			return
		}
	}

	start := time.Now()
	active, err := s.monitor.Tick()
	elapsed := time.Since(start)

	s.mu.Lock()
	s.status.Ticks++
	s.status.LastTick = start
	s.status.TriggerActive = active
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.recordTickError(err, elapsed)
		s.metrics.TriggerActive.Set(boolValue(active))
		return
	}
	s.metrics.RecordTick(active, elapsed, "")
}

func (s *Service) recordTickError(err error, elapsed time.Duration) {
	kind := "tick"
	switch {
	case errors.Is(err, audio.ErrDeviceUnavailable):
		kind = "device_unavailable"
	case errors.Is(err, monitor.ErrAudioInit):
		kind = "init"
	}

	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()

	s.metrics.Ticks.Inc()
	s.metrics.TickDuration.Observe(elapsed.Seconds())
	s.metrics.TickErrors.WithLabelValues(kind).Inc()

	s.logger.Warn("tick failed", zap.String("kind", kind), zap.Error(err))
	s.storeError(kind, err)
}

func (s *Service) onTransition(muted bool) {
	s.holding = muted
	s.logger.Info("mute state changed", zap.Bool("muted", muted))
	s.metrics.RecordTransition(muted)

	s.mu.Lock()
	s.status.Muted = muted
	runID := s.status.RunID
	s.mu.Unlock()

	if s.repo == nil {
		return
	}

	event := &models.MuteEvent{
		Timestamp:   time.Now(),
		Muted:       muted,
		RunID:       runID,
		Target:      s.config.Monitor.TargetExecutable,
		WindowTitle: s.config.Monitor.TriggerTitle,
		Backend:     s.backend,
	}
	if err := s.repo.CreateMuteEvent(event); err != nil {
		s.logger.Error("Failed to store mute event", zap.Error(err))
	}
}

// release unmutes if adspot is the one holding the mute.
func (s *Service) release() {
	if s.monitor == nil || !s.holding {
		return
	}
	if err := s.monitor.Release(); err != nil {
		s.logger.Warn("failed to release mute", zap.Error(err))
		s.storeError("release", err)
	}
}

func (s *Service) restart() error {
	s.logger.Info("Restarting monitor")
	s.teardown()

	if err := s.build(); err != nil {
		s.logger.Error("failed to restart monitor", zap.Error(err))
		s.storeError("init", err)
		s.mu.Lock()
		s.status.LastError = err.Error()
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Service) teardown() {
	if s.monitor == nil {
		return
	}
	s.release()
	if err := s.monitor.Close(); err != nil {
		s.logger.Debug("failed to close monitor", zap.Error(err))
	}
	s.monitor = nil
	s.holding = false
}

func (s *Service) storeError(source string, err error) {
	if s.repo == nil {
		return
	}
	if !s.limiter.Allow() {
		s.metrics.ErrorsDropped.Inc()
		return
	}

	s.mu.RLock()
	runID := s.status.RunID
	s.mu.RUnlock()

	errorLog := &models.ErrorLog{
		Timestamp: time.Now(),
		RunID:     runID,
		Source:    source,
		ErrorMsg:  err.Error(),
	}
	if dbErr := s.repo.CreateErrorLog(errorLog); dbErr != nil {
		s.logger.Error("Failed to store error in database", zap.Error(dbErr), zap.NamedError("original", err))
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
