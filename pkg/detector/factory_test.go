package detector

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInspector(t *testing.T) {
	insp, err := NewInspector(nil)
	if err != nil {
		t.Logf("NewInspector() returned error (may be expected): %v", err)
		return
	}
	defer insp.Close()

	windows, err := insp.Snapshot()
	if err != nil {
		t.Logf("Snapshot() error: %v", err)
	}
	t.Logf("Inspector %s saw %d windows", insp.Name(), len(windows))
}

func TestNewAudioBackend(t *testing.T) {
	backend, err := NewAudioBackend()
	if err != nil {
		t.Logf("NewAudioBackend() returned error (may be expected): %v", err)
		return
	}
	defer backend.Close()
	t.Logf("Audio backend: %s", backend.Name())
}

func TestDetectDisplayServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, "win32", DetectDisplayServer())
		return
	}

	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{"Wayland session", "wayland", "wayland-0", "", "wayland"},
		{"X11 session", "x11", "", ":0", "x11"},
		{"Unknown session", "", "", "", "unknown"},
		{"Wayland display set", "", "wayland-1", "", "wayland"},
		{"X11 display set", "", "", ":1", "x11"},
	}

	origSessionType := os.Getenv("XDG_SESSION_TYPE")
	origWaylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	origX11Display := os.Getenv("DISPLAY")

	defer func() {
		os.Setenv("XDG_SESSION_TYPE", origSessionType)
		os.Setenv("WAYLAND_DISPLAY", origWaylandDisplay)
		os.Setenv("DISPLAY", origX11Display)
	}()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			os.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			os.Setenv("DISPLAY", tt.x11Display)

			assert.Equal(t, tt.expected, DetectDisplayServer())
		})
	}
}
