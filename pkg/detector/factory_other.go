//go:build !windows && !linux

package detector

import (
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/window"
)

// NewInspector is not supported on this platform
func NewInspector(logger *zap.Logger) (window.Inspector, error) {
	return nil, errors.Errorf("window inspection is not supported on %s", runtime.GOOS)
}

// NewAudioBackend is not supported on this platform
func NewAudioBackend() (audio.Backend, error) {
	return nil, errors.Errorf("audio control is not supported on %s", runtime.GOOS)
}
