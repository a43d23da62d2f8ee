//go:build linux

package detector

import (
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/integrations/hybrid"
	"github.com/adspot/adspot/pkg/integrations/pulse"
	"github.com/adspot/adspot/pkg/window"
)

// NewInspector returns a compositor or X11 inspector for the session
func NewInspector(logger *zap.Logger) (window.Inspector, error) {
	insp, err := hybrid.NewInspector(logger)
	if err != nil {
		return nil, err
	}
	return insp, nil
}

// NewAudioBackend returns the pactl backend
func NewAudioBackend() (audio.Backend, error) {
	backend, err := pulse.NewBackend()
	if err != nil {
		return nil, err
	}
	return backend, nil
}
