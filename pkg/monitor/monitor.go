// Package monitor ties window inspection, trigger evaluation and audio
// suppression into a single sense/decide/act tick.
package monitor

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/trigger"
	"github.com/adspot/adspot/pkg/window"
)

// ErrAudioInit is returned by New when the audio subsystem cannot be reached.
// A monitor without an endpoint has no useful degraded mode, so New never
// retries; callers decide whether to try again later.
var ErrAudioInit = errors.New("failed to initialize audio")

// Monitor runs one tick at a time. It does not loop or sleep; the caller
// owns the cadence and the thread. Construct it on the OS thread that will
// call Tick.
type Monitor struct {
	config     trigger.Config
	inspector  window.Inspector
	suppressor *audio.Suppressor
	logger     *zap.Logger
}

// Option configures a Monitor.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	onChange func(muted bool)
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMuteObserver is called after every real mute transition.
func WithMuteObserver(fn func(muted bool)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// New builds a Monitor. The backend's first endpoint is acquired here.
func New(cfg trigger.Config, inspector window.Inspector, backend audio.Backend, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid trigger config")
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	suppressor, err := audio.NewSuppressor(backend,
		audio.WithLogger(o.logger),
		audio.WithObserver(o.onChange),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioInit, err)
	}

	return &Monitor{
		config:     cfg,
		inspector:  inspector,
		suppressor: suppressor,
		logger:     o.logger,
	}, nil
}

// Tick scans the windows, evaluates the trigger and applies the mute
// decision. The returned bool is the trigger decision even when the error is
// non-nil: a failed mute apply or a partial scan never hides what was seen.
func (m *Monitor) Tick() (bool, error) {
	snapshot, scanErr := m.inspector.Snapshot()
	if scanErr != nil {
		scanErr = errors.Wrap(scanErr, "window scan incomplete")
	}

	active := trigger.Evaluate(snapshot, m.config)

	if err := m.suppressor.EnsureMuted(active); err != nil {
		if scanErr != nil {
			m.logger.Debug("scan error superseded by audio error", zap.Error(scanErr))
		}
		return active, errors.Wrap(err, "failed to apply mute state")
	}
	return active, scanErr
}

// Release unmutes the endpoint. Hosts call it when monitoring is disabled or
// shutting down so the user is never left muted.
func (m *Monitor) Release() error {
	return m.suppressor.EnsureMuted(false)
}

// Muted reads the endpoint's current mute state.
func (m *Monitor) Muted() (bool, error) {
	return m.suppressor.Muted()
}

// Config returns the trigger configuration the monitor was built with.
func (m *Monitor) Config() trigger.Config {
	return m.config
}

// Close releases the audio endpoint and the inspector.
func (m *Monitor) Close() error {
	err := m.suppressor.Close()
	if cerr := m.inspector.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "failed to close inspector")
	}
	return err
}
