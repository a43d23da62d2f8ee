package win32

import "github.com/adspot/adspot/pkg/window"

// collector accumulates one enumeration pass. Owner names are cached per pid
// for the length of the pass only.
type collector struct {
	windows []window.Window
	owners  map[uint32]string
	resolve func(pid uint32) string
}

func newCollector(resolve func(pid uint32) string) *collector {
	return &collector{
		owners:  make(map[uint32]string),
		resolve: resolve,
	}
}

// add records one window. Untitled windows are skipped; a pid of 0 or a
// failed resolution leaves the owner empty.
func (c *collector) add(title string, pid uint32) {
	if title == "" {
		return
	}
	if pid == 0 {
		c.windows = append(c.windows, window.Window{Title: title})
		return
	}

	owner, ok := c.owners[pid]
	if !ok {
		owner = window.BaseName(c.resolve(pid))
		c.owners[pid] = owner
	}
	c.windows = append(c.windows, window.Window{Title: title, ProcessName: owner})
}
