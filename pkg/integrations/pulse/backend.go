// Package pulse mutes the default sink of a PulseAudio or PipeWire-pulse
// server through pactl.
package pulse

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/audio"
)

// Runner executes pactl with args and returns its stdout
type Runner func(args ...string) ([]byte, error)

func execRunner(args ...string) ([]byte, error) {
	return pactlCommand(args...).Output()
}

// pactlCommand forces the C locale; pactl translates both the "Mute:" label
// and the yes/no value.
func pactlCommand(args ...string) *exec.Cmd {
	cmd := exec.Command("pactl", args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd
}

// Backend resolves the default sink by name. The sink name plays the role of
// the endpoint handle: when the sink disappears pactl fails and the failure
// is reported as stale.
type Backend struct {
	run Runner
}

// NewBackend checks that pactl is installed and the server answers
func NewBackend() (*Backend, error) {
	if _, err := exec.LookPath("pactl"); err != nil {
		return nil, errors.Wrap(err, "pactl not found")
	}
	b := &Backend{run: execRunner}
	if _, err := b.run("info"); err != nil {
		return nil, errors.Wrap(err, "audio server not reachable")
	}
	return b, nil
}

// NewBackendWithRunner uses run instead of invoking pactl
func NewBackendWithRunner(run Runner) *Backend {
	return &Backend{run: run}
}

// Name returns "pulse"
func (b *Backend) Name() string {
	return "pulse"
}

// Acquire returns a handle bound to the current default sink
func (b *Backend) Acquire() (audio.Endpoint, error) {
	out, err := b.run("get-default-sink")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get default sink")
	}
	sink := strings.TrimSpace(string(out))
	if sink == "" || sink == "@DEFAULT_SINK@" {
		return nil, errors.New("no default sink")
	}
	return &endpoint{sink: sink, run: b.run}, nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

type endpoint struct {
	sink string
	run  Runner
}

func (e *endpoint) Muted() (bool, error) {
	out, err := e.run("get-sink-mute", e.sink)
	if err != nil {
		return false, classify(errors.Wrapf(err, "get-sink-mute %s", e.sink))
	}
	return parseMute(string(out))
}

func (e *endpoint) SetMuted(muted bool) error {
	value := "0"
	if muted {
		value = "1"
	}
	if _, err := e.run("set-sink-mute", e.sink, value); err != nil {
		return classify(errors.Wrapf(err, "set-sink-mute %s", e.sink))
	}
	return nil
}

func (e *endpoint) Release() error {
	return nil
}

// parseMute reads "Mute: yes" / "Mute: no"
func parseMute(output string) (bool, error) {
	fields := strings.Fields(output)
	if len(fields) != 2 || fields[0] != "Mute:" {
		return false, errors.Errorf("unexpected pactl output %q", strings.TrimSpace(output))
	}
	switch fields[1] {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, errors.Errorf("unexpected mute value %q", fields[1])
}

// classify treats pactl exiting with an error as a vanished sink. A missing
// binary is not something re-acquiring can fix.
func classify(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return audio.Stale(err)
	}
	return err
}
