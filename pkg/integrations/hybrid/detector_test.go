package hybrid

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot/adspot/pkg/window"
)

type stub struct {
	name    string
	windows []window.Window
	err     error
	calls   int
	closed  bool
}

func (s *stub) Snapshot() ([]window.Window, error) {
	s.calls++
	return s.windows, s.err
}

func (s *stub) Name() string { return s.name }

func (s *stub) Close() error {
	s.closed = true
	return nil
}

var ad = []window.Window{{Title: "Advertisement", ProcessName: "spotify"}}

func TestSnapshotUsesPrimary(t *testing.T) {
	primary := &stub{name: "sway", windows: ad}
	fallback := &stub{name: "x11"}
	insp := New(primary, fallback, nil)

	got, err := insp.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, ad, got)
	assert.Zero(t, fallback.calls)
	assert.Equal(t, "sway", insp.Name())
}

func TestSnapshotFallsBack(t *testing.T) {
	primary := &stub{name: "sway", err: errors.New("ipc socket gone")}
	fallback := &stub{name: "x11", windows: ad}
	insp := New(primary, fallback, nil)

	got, err := insp.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, ad, got)
	assert.Equal(t, "x11", insp.Name())
}

func TestSnapshotKeepsPartialPrimary(t *testing.T) {
	primary := &stub{name: "x11", windows: ad, err: errors.New("interrupted")}
	fallback := &stub{name: "other"}
	insp := New(primary, fallback, nil)

	got, err := insp.Snapshot()
	assert.Error(t, err)
	assert.Equal(t, ad, got)
	assert.Zero(t, fallback.calls)
}

func TestSnapshotAllFail(t *testing.T) {
	insp := New(&stub{name: "a", err: errors.New("a")}, &stub{name: "b", err: errors.New("b")}, nil)
	got, err := insp.Snapshot()
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestCloseClosesBoth(t *testing.T) {
	primary, fallback := &stub{name: "a"}, &stub{name: "b"}
	require.NoError(t, New(primary, fallback, nil).Close())
	assert.True(t, primary.closed)
	assert.True(t, fallback.closed)
}
