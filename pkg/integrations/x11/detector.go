package x11

import (
	"encoding/binary"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/integrations/process"
	"github.com/adspot/adspot/pkg/window"
)

// Upper bound, in 32-bit units, on how much of a property is read.
const maxPropertyLength = 1 << 16

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"UTF8_STRING",
}

// Inspector implements window.Inspector for X11 using the EWMH client list
type Inspector struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewInspector connects to the X server named by $DISPLAY
func NewInspector() (*Inspector, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	i := &Inspector{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		i.atoms[name] = reply.Atom
	}

	return i, nil
}

// Name returns "x11"
func (i *Inspector) Name() string {
	return "x11"
}

// Snapshot lists the managed client windows with their titles and owners
func (i *Inspector) Snapshot() ([]window.Window, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, err := i.getProperty(i.root, i.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read _NET_CLIENT_LIST")
	}

	resolver := process.NewResolver()
	var windows []window.Window
	for _, id := range parseWindowList(data) {
		title := i.title(id)
		if title == "" {
			continue
		}

		owner := ""
		if pid := i.pid(id); pid > 0 {
			owner = resolver.Name(pid)
		}
		windows = append(windows, window.Window{Title: title, ProcessName: owner})
	}
	return windows, nil
}

// Close closes the X connection
func (i *Inspector) Close() error {
	i.conn.Close()
	return nil
}

func (i *Inspector) getProperty(win xproto.Window, atom, atomType xproto.Atom) ([]byte, error) {
	reply, err := xproto.GetProperty(i.conn, false, win, atom, atomType, 0, maxPropertyLength).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// title prefers the UTF-8 EWMH name and falls back to WM_NAME.
func (i *Inspector) title(win xproto.Window) string {
	if data, err := i.getProperty(win, i.atoms["_NET_WM_NAME"], i.atoms["UTF8_STRING"]); err == nil && len(data) > 0 {
		return string(data)
	}
	if data, err := i.getProperty(win, i.atoms["WM_NAME"], xproto.GetPropertyTypeAny); err == nil {
		return string(data)
	}
	return ""
}

func (i *Inspector) pid(win xproto.Window) int {
	data, err := i.getProperty(win, i.atoms["_NET_WM_PID"], xproto.AtomCardinal)
	if err != nil {
		return 0
	}
	return parsePID(data)
}

func parseWindowList(data []byte) []xproto.Window {
	windows := make([]xproto.Window, 0, len(data)/4)
	for off := 0; off+4 <= len(data); off += 4 {
		windows = append(windows, xproto.Window(binary.LittleEndian.Uint32(data[off:])))
	}
	return windows
}

func parsePID(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(data))
}
