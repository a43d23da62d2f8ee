package hybrid

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/integrations/wayland"
	"github.com/adspot/adspot/pkg/integrations/x11"
	"github.com/adspot/adspot/pkg/window"
)

// Inspector tries the native compositor inspector first and falls back to
// X11 (or XWayland) when the primary cannot enumerate at all
type Inspector struct {
	primary  window.Inspector
	fallback window.Inspector
	logger   *zap.Logger

	lastSuccessfulMethod string
}

// NewInspector picks inspectors from the session environment
func NewInspector(logger *zap.Logger) (*Inspector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	inspectors := detectInspectors(logger)
	if len(inspectors) == 0 {
		return nil, errors.New("no window inspector available (need sway, Hyprland or an X11 display)")
	}

	i := &Inspector{primary: inspectors[0], logger: logger}
	if len(inspectors) > 1 {
		i.fallback = inspectors[1]
	}
	logger.Info("window inspector initialized", zap.String("primary", i.primary.Name()))
	return i, nil
}

func detectInspectors(logger *zap.Logger) []window.Inspector {
	var found []window.Inspector

	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	xdgSessionType := os.Getenv("XDG_SESSION_TYPE")
	if waylandDisplay != "" || xdgSessionType == "wayland" {
		insp := wayland.NewInspector()
		if insp.IsAvailable() {
			found = append(found, insp)
		} else {
			logger.Debug("wayland compositor not supported", zap.String("compositor", insp.Compositor()))
		}
	}

	if os.Getenv("DISPLAY") != "" {
		insp, err := x11.NewInspector()
		if err == nil {
			found = append(found, insp)
		} else {
			logger.Debug("x11 inspector unavailable", zap.Error(err))
		}
	}

	return found
}

// New combines explicit inspectors; fallback may be nil
func New(primary, fallback window.Inspector, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{primary: primary, fallback: fallback, logger: logger}
}

// Name returns the name of the inspector that last produced a snapshot
func (i *Inspector) Name() string {
	if i.lastSuccessfulMethod != "" {
		return i.lastSuccessfulMethod
	}
	return i.primary.Name()
}

// Snapshot uses the primary inspector. A partial primary result is kept;
// the fallback is only consulted when the primary returned nothing.
func (i *Inspector) Snapshot() ([]window.Window, error) {
	windows, err := i.primary.Snapshot()
	if err == nil || len(windows) > 0 || i.fallback == nil {
		i.lastSuccessfulMethod = i.primary.Name()
		return windows, err
	}

	fbWindows, fbErr := i.fallback.Snapshot()
	if fbErr != nil && len(fbWindows) == 0 {
		i.logger.Debug("all inspectors failed",
			zap.String("primary", i.primary.Name()), zap.NamedError("primary_error", err),
			zap.String("fallback", i.fallback.Name()), zap.NamedError("fallback_error", fbErr))
		return nil, errors.Wrap(err, "all window inspectors failed")
	}

	i.lastSuccessfulMethod = i.fallback.Name()
	return fbWindows, fbErr
}

// Close closes all inspectors
func (i *Inspector) Close() error {
	if err := i.primary.Close(); err != nil {
		i.logger.Warn("error closing window inspector", zap.Error(err))
	}
	if i.fallback != nil {
		if err := i.fallback.Close(); err != nil {
			i.logger.Warn("error closing fallback inspector", zap.Error(err))
		}
	}
	return nil
}
