// Package audio keeps the default render endpoint's mute state in line with
// the trigger decision.
package audio

import (
	"github.com/pkg/errors"
)

var (
	// ErrDeviceUnavailable is returned when neither the held endpoint nor a
	// freshly acquired one could be read or written.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrStaleHandle marks failures caused by an endpoint that no longer
	// refers to a live device.
	ErrStaleHandle = errors.New("stale audio endpoint handle")
)

// Endpoint is a handle to one render device's mute control.
type Endpoint interface {
	Muted() (bool, error)
	SetMuted(muted bool) error
	Release() error
}

// Backend acquires handles to the current default render endpoint.
type Backend interface {
	// Acquire resolves the default render endpoint now. Each call returns a
	// new handle; the caller owns it and must Release it.
	Acquire() (Endpoint, error)

	// Name identifies the backend ("wasapi", "pulse", ...)
	Name() string

	// Close tears down the backend's connection to the audio subsystem.
	Close() error
}

type staleError struct {
	err error
}

func (e *staleError) Error() string {
	return ErrStaleHandle.Error() + ": " + e.err.Error()
}

func (e *staleError) Unwrap() error { return e.err }

func (e *staleError) Is(target error) bool { return target == ErrStaleHandle }

// Stale marks err as a stale handle failure. Backends use it to tell the
// Suppressor that re-acquiring the endpoint may help.
func Stale(err error) error {
	if err == nil {
		return nil
	}
	return &staleError{err: err}
}

// IsStale reports whether err was classified as a stale handle failure.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleHandle)
}
