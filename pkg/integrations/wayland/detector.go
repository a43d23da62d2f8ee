package wayland

import (
	"encoding/json"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/integrations/process"
	"github.com/adspot/adspot/pkg/window"
)

// Runner executes a command and returns its stdout
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Inspector implements window.Inspector for wlroots compositors that expose
// their window tree over IPC (sway, Hyprland)
type Inspector struct {
	compositor string
	run        Runner
	lookPath   func(string) (string, error)
	resolve    func(pid int) string
}

// NewInspector creates a Wayland inspector for the running compositor
func NewInspector() *Inspector {
	i := &Inspector{
		run:      execRunner,
		lookPath: exec.LookPath,
	}
	i.detectCompositor()
	return i
}

// commandExists checks if a command is available in PATH
func (i *Inspector) commandExists(cmd string) bool {
	_, err := i.lookPath(cmd)
	return err == nil
}

// detectCompositor attempts to detect the Wayland compositor
func (i *Inspector) detectCompositor() {
	compositors := []struct {
		process string
		name    string
	}{
		{"sway", "sway"},
		{"Hyprland", "hyprland"},
	}

	for _, c := range compositors {
		if _, err := i.run("pgrep", "-x", c.process); err == nil {
			i.compositor = c.name
			return
		}
	}

	i.compositor = "unknown"
}

// Compositor returns the detected compositor name
func (i *Inspector) Compositor() string {
	return i.compositor
}

// IsAvailable checks if the compositor's IPC client is installed
func (i *Inspector) IsAvailable() bool {
	switch i.compositor {
	case "sway":
		return i.commandExists("swaymsg")
	case "hyprland":
		return i.commandExists("hyprctl")
	default:
		return false
	}
}

// Name returns the compositor name
func (i *Inspector) Name() string {
	return i.compositor
}

// Snapshot lists all client windows known to the compositor
func (i *Inspector) Snapshot() ([]window.Window, error) {
	var (
		clients []client
		err     error
	)

	switch i.compositor {
	case "sway":
		clients, err = i.swayClients()
	case "hyprland":
		clients, err = i.hyprlandClients()
	default:
		return nil, errors.Errorf("unsupported wayland compositor: %s", i.compositor)
	}
	if err != nil {
		return nil, err
	}

	resolve := i.resolve
	if resolve == nil {
		resolve = process.NewResolver().Name
	}

	windows := make([]window.Window, 0, len(clients))
	for _, c := range clients {
		if c.title == "" {
			continue
		}
		owner := ""
		if c.pid > 0 {
			owner = resolve(c.pid)
		}
		windows = append(windows, window.Window{Title: c.title, ProcessName: owner})
	}
	return windows, nil
}

// Close cleans up resources
func (i *Inspector) Close() error {
	return nil
}

type client struct {
	title string
	pid   int
}

func (i *Inspector) swayClients() ([]client, error) {
	output, err := i.run("swaymsg", "-t", "get_tree")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

func (i *Inspector) hyprlandClients() ([]client, error) {
	output, err := i.run("hyprctl", "clients", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandClients(output)
}

type swayNode struct {
	Name          *string    `json:"name"`
	PID           int        `json:"pid"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// parseSwayTree walks the sway layout tree collecting application windows.
// Only leaf containers carry a pid.
func parseSwayTree(data []byte) ([]client, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse sway tree")
	}

	var clients []client
	var walk func(n swayNode)
	walk = func(n swayNode) {
		if n.PID > 0 && n.Name != nil {
			clients = append(clients, client{title: *n.Name, pid: n.PID})
		}
		for _, child := range n.Nodes {
			walk(child)
		}
		for _, child := range n.FloatingNodes {
			walk(child)
		}
	}
	walk(root)
	return clients, nil
}

type hyprlandClient struct {
	Title string `json:"title"`
	PID   int    `json:"pid"`
}

func parseHyprlandClients(data []byte) ([]client, error) {
	var raw []hyprlandClient
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse hyprctl clients")
	}

	clients := make([]client, 0, len(raw))
	for _, c := range raw {
		clients = append(clients, client{title: c.Title, pid: c.PID})
	}
	return clients, nil
}
