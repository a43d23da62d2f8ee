package window

import "strings"

// Window is one top-level window seen during a scan
type Window struct {
	Title       string // Visible window title, never empty
	ProcessName string // Base name of the owning executable, "" when unresolved
}

// Inspector is the interface that all window enumeration implementations must satisfy
type Inspector interface {
	// Snapshot returns every titled top-level window with its owner executable.
	// Failures to resolve a single window's owner leave ProcessName empty; an
	// error is only returned when the enumeration itself failed, in which case
	// the windows gathered so far are still returned.
	Snapshot() ([]Window, error)

	// Name identifies the backend ("win32", "x11", "sway", ...)
	Name() string

	// Close cleans up any resources used by the inspector
	Close() error
}

// BaseName returns the file-name component of an executable path.
// Both '\' and '/' are treated as separators so Windows image paths
// resolve the same way on every platform.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
