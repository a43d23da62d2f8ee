//go:build windows

package detector

import (
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/integrations/win32"
	"github.com/adspot/adspot/pkg/window"
)

// NewInspector returns the EnumWindows based inspector
func NewInspector(logger *zap.Logger) (window.Inspector, error) {
	return win32.NewInspector(), nil
}

// NewAudioBackend initializes COM on the calling thread and returns the
// WASAPI backend. Call it from the OS thread that will use the backend.
func NewAudioBackend() (audio.Backend, error) {
	backend, err := win32.NewBackend()
	if err != nil {
		return nil, err
	}
	return backend, nil
}
