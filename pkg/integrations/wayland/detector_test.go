package wayland

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot/adspot/pkg/window"
)

const swayTree = `{
  "id": 1, "name": "root", "type": "root", "pid": 0,
  "nodes": [
    {"id": 2, "name": "eDP-1", "type": "output", "nodes": [
      {"id": 3, "name": "1", "type": "workspace", "nodes": [
        {"id": 10, "name": "Advertisement", "type": "con", "pid": 4242, "app_id": null, "nodes": []},
        {"id": 11, "name": "~/src", "type": "con", "pid": 1337, "app_id": "foot", "nodes": []}
      ],
      "floating_nodes": [
        {"id": 12, "name": "Picture-in-Picture", "type": "floating_con", "pid": 2020, "nodes": []}
      ]}
    ]}
  ]
}`

const hyprClients = `[
  {"address": "0x1", "title": "Advertisement", "class": "Spotify", "pid": 4242},
  {"address": "0x2", "title": "", "class": "xwaylandvideobridge", "pid": 99},
  {"address": "0x3", "title": "Inbox", "class": "thunderbird", "pid": 7}
]`

func TestParseSwayTree(t *testing.T) {
	clients, err := parseSwayTree([]byte(swayTree))
	require.NoError(t, err)
	assert.Equal(t, []client{
		{title: "Advertisement", pid: 4242},
		{title: "~/src", pid: 1337},
		{title: "Picture-in-Picture", pid: 2020},
	}, clients)

	_, err = parseSwayTree([]byte("not json"))
	assert.Error(t, err)
}

func TestParseHyprlandClients(t *testing.T) {
	clients, err := parseHyprlandClients([]byte(hyprClients))
	require.NoError(t, err)
	assert.Len(t, clients, 3)
	assert.Equal(t, client{title: "Advertisement", pid: 4242}, clients[0])
}

func fakeInspector(compositor string, outputs map[string]string) *Inspector {
	return &Inspector{
		compositor: compositor,
		run: func(name string, args ...string) ([]byte, error) {
			if out, ok := outputs[name]; ok {
				return []byte(out), nil
			}
			return nil, errors.Errorf("%s: not found", name)
		},
		lookPath: func(cmd string) (string, error) {
			if _, ok := outputs[cmd]; ok {
				return "/usr/bin/" + cmd, nil
			}
			return "", errors.New("not found")
		},
		resolve: func(pid int) string {
			names := map[int]string{4242: "spotify", 1337: "foot", 7: "thunderbird"}
			return names[pid]
		},
	}
}

func TestSnapshotSway(t *testing.T) {
	insp := fakeInspector("sway", map[string]string{"swaymsg": swayTree})
	assert.True(t, insp.IsAvailable())

	windows, err := insp.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []window.Window{
		{Title: "Advertisement", ProcessName: "spotify"},
		{Title: "~/src", ProcessName: "foot"},
		{Title: "Picture-in-Picture", ProcessName: ""},
	}, windows)
}

func TestSnapshotHyprlandSkipsUntitled(t *testing.T) {
	insp := fakeInspector("hyprland", map[string]string{"hyprctl": hyprClients})

	windows, err := insp.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []window.Window{
		{Title: "Advertisement", ProcessName: "spotify"},
		{Title: "Inbox", ProcessName: "thunderbird"},
	}, windows)
}

func TestSnapshotCommandFailure(t *testing.T) {
	insp := fakeInspector("sway", map[string]string{})
	assert.False(t, insp.IsAvailable())

	_, err := insp.Snapshot()
	assert.Error(t, err)
}

func TestDetectCompositor(t *testing.T) {
	insp := fakeInspector("", map[string]string{"pgrep": ""})
	insp.detectCompositor()
	assert.Equal(t, "sway", insp.Compositor())

	insp = fakeInspector("", map[string]string{})
	insp.detectCompositor()
	assert.Equal(t, "unknown", insp.Compositor())
	_, err := insp.Snapshot()
	assert.Error(t, err)
}

func TestInspectorInterface(t *testing.T) {
	var _ window.Inspector = (*Inspector)(nil)
}
