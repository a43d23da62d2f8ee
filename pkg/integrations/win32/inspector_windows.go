//go:build windows

package win32

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/adspot/adspot/pkg/window"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")

	// One callback for the life of the process: callbacks created with
	// NewCallback are never freed and the runtime caps how many exist.
	enumWindowsCallback = windows.NewCallback(enumWindow)

	// EnumWindows gets a key into passes instead of a Go pointer.
	passesMu sync.Mutex
	passes   = make(map[uintptr]*collector)
	nextPass uintptr
)

// Inspector enumerates top-level windows with EnumWindows.
type Inspector struct {
	mu      sync.Mutex
	resolve func(pid uint32) string
}

// NewInspector creates a win32 inspector
func NewInspector() *Inspector {
	return &Inspector{resolve: processImagePath}
}

// Name returns "win32"
func (i *Inspector) Name() string {
	return "win32"
}

// Snapshot returns every titled top-level window and its owner executable
func (i *Inspector) Snapshot() ([]window.Window, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	c := newCollector(i.resolve)
	key := registerPass(c)
	defer unregisterPass(key)

	if err := enumWindows(enumWindowsCallback, key); err != nil {
		return c.windows, errors.Wrap(err, "EnumWindows failed")
	}
	return c.windows, nil
}

// Close is a no-op; no handles outlive a Snapshot call
func (i *Inspector) Close() error {
	return nil
}

func registerPass(c *collector) uintptr {
	passesMu.Lock()
	defer passesMu.Unlock()
	nextPass++
	passes[nextPass] = c
	return nextPass
}

func unregisterPass(key uintptr) {
	passesMu.Lock()
	defer passesMu.Unlock()
	delete(passes, key)
}

func lookupPass(key uintptr) *collector {
	passesMu.Lock()
	defer passesMu.Unlock()
	return passes[key]
}

// enumWindows calls EnumWindows with a plain integer lparam.
func enumWindows(callback uintptr, lparam uintptr) error {
	r, _, err := procEnumWindows.Call(callback, lparam)
	if r == 0 {
		if err != nil && err != windows.ERROR_SUCCESS {
			return err
		}
		return errors.New("EnumWindows returned FALSE")
	}
	return nil
}

func enumWindow(hwnd windows.HWND, lparam uintptr) uintptr {
	c := lookupPass(lparam)
	if c == nil {
		return 0
	}

	title := windowTitle(hwnd)
	if title == "" {
		return 1
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		pid = 0
	}
	c.add(title, pid)
	return 1
}

func windowTitle(hwnd windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if int32(n) <= 0 {
		return ""
	}

	buf := make([]uint16, n+1)
	copied, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if int32(copied) <= 0 {
		return ""
	}
	if int(copied) > len(buf) {
		copied = uintptr(len(buf))
	}
	return windows.UTF16ToString(buf[:copied])
}

// processImagePath returns the full image path of pid, or "" when the
// process is gone or cannot be opened.
func processImagePath(pid uint32) string {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(handle)

	for _, capacity := range []uint32{windows.MAX_PATH, windows.MAX_LONG_PATH} {
		buf := make([]uint16, capacity)
		size := capacity
		err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size)
		if err == nil {
			return windows.UTF16ToString(buf[:size])
		}
		if err != windows.ERROR_INSUFFICIENT_BUFFER {
			return ""
		}
	}
	return ""
}
