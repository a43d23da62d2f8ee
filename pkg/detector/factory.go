// Package detector selects the window inspector and audio backend for the
// running platform.
package detector

import (
	"os"
	"runtime"
)

// DetectDisplayServer reports the windowing system the inspector will talk to
func DetectDisplayServer() string {
	if runtime.GOOS == "windows" {
		return "win32"
	}

	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
