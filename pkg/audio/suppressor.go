package audio

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Suppressor owns exactly one endpoint handle and applies mute decisions to it.
//
// A Suppressor is not safe for concurrent use. Backends that need per-thread
// initialization (COM on Windows) require that NewSuppressor and every later
// call happen on the same OS thread; callers lock the goroutine with
// runtime.LockOSThread before constructing it.
type Suppressor struct {
	backend  Backend
	endpoint Endpoint
	onChange func(muted bool)
	logger   *zap.Logger
}

// Option configures a Suppressor.
type Option func(*Suppressor)

// WithObserver registers fn to be called after every real mute transition.
// It is never called for no-op applies.
func WithObserver(fn func(muted bool)) Option {
	return func(s *Suppressor) {
		s.onChange = fn
	}
}

// WithLogger sets the logger used for recovery diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Suppressor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSuppressor acquires the initial endpoint from backend.
func NewSuppressor(backend Backend, opts ...Option) (*Suppressor, error) {
	s := &Suppressor{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	endpoint, err := backend.Acquire()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire default render endpoint")
	}
	s.endpoint = endpoint
	return s, nil
}

// EnsureMuted brings the endpoint's mute state to target. It reads the live
// state first and only writes when it differs. A failed read, or a write that
// fails with a stale handle, triggers one re-acquire and retry; if that also
// fails ErrDeviceUnavailable is returned and the newly acquired handle is kept
// for the next attempt.
func (s *Suppressor) EnsureMuted(target bool) error {
	muted, err := s.read()
	if err != nil {
		s.logger.Debug("endpoint read failed, re-acquiring", zap.Error(err))
		if muted, err = s.recoverRead(); err != nil {
			return err
		}
	}

	if muted == target {
		return nil
	}

	if err := s.endpoint.SetMuted(target); err != nil {
		if !IsStale(err) {
			return errors.Wrap(err, "failed to set mute state")
		}
		s.logger.Debug("endpoint write hit a stale handle, re-acquiring", zap.Error(err))

		// The new device may already be in the target state.
		if muted, err = s.recoverRead(); err != nil {
			return err
		}
		if muted == target {
			return nil
		}
		if err := s.endpoint.SetMuted(target); err != nil {
			return errors.Wrapf(ErrDeviceUnavailable, "set mute after re-acquire: %v", err)
		}
	}

	if s.onChange != nil {
		s.onChange(target)
	}
	return nil
}

// Muted reads the current mute state without recovery.
func (s *Suppressor) Muted() (bool, error) {
	return s.read()
}

// Close releases the held endpoint and the backend.
func (s *Suppressor) Close() error {
	var firstErr error
	if s.endpoint != nil {
		if err := s.endpoint.Release(); err != nil {
			firstErr = errors.Wrap(err, "failed to release endpoint")
		}
		s.endpoint = nil
	}
	if err := s.backend.Close(); err != nil && firstErr == nil {
		firstErr = errors.Wrap(err, "failed to close audio backend")
	}
	return firstErr
}

func (s *Suppressor) read() (bool, error) {
	if s.endpoint == nil {
		return false, Stale(errors.New("no endpoint held"))
	}
	return s.endpoint.Muted()
}

// recoverRead swaps the held handle for a fresh one and reads it once.
func (s *Suppressor) recoverRead() (bool, error) {
	if err := s.reacquire(); err != nil {
		return false, errors.Wrapf(ErrDeviceUnavailable, "re-acquire endpoint: %v", err)
	}
	muted, err := s.endpoint.Muted()
	if err != nil {
		return false, errors.Wrapf(ErrDeviceUnavailable, "read after re-acquire: %v", err)
	}
	return muted, nil
}

func (s *Suppressor) reacquire() error {
	if s.endpoint != nil {
		if err := s.endpoint.Release(); err != nil {
			s.logger.Debug("failed to release stale endpoint", zap.Error(err))
		}
		s.endpoint = nil
	}

	endpoint, err := s.backend.Acquire()
	if err != nil {
		return err
	}
	s.endpoint = endpoint
	return nil
}
