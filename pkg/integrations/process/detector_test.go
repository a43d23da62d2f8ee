package process

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProc(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	withExe := filepath.Join(root, "100")
	require.NoError(t, os.MkdirAll(withExe, 0755))
	require.NoError(t, os.Symlink("/opt/spotify/spotify", filepath.Join(withExe, "exe")))

	deleted := filepath.Join(root, "200")
	require.NoError(t, os.MkdirAll(deleted, 0755))
	require.NoError(t, os.Symlink("/usr/bin/player (deleted)", filepath.Join(deleted, "exe")))

	statOnly := filepath.Join(root, "300")
	require.NoError(t, os.MkdirAll(statOnly, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(statOnly, "stat"),
		[]byte("300 (Web Content) S 1 300 300 0 -1"), 0644))

	return root
}

func withProcRoot(t *testing.T, root string) {
	t.Helper()
	orig := ProcRoot
	ProcRoot = root
	t.Cleanup(func() { ProcRoot = orig })
}

func TestExecutableName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	withProcRoot(t, fakeProc(t))

	tests := []struct {
		name    string
		pid     int
		want    string
		wantErr bool
	}{
		{"exe link", 100, "spotify", false},
		{"deleted binary", 200, "player", false},
		{"stat fallback", 300, "Web Content", false},
		{"missing process", 400, "", true},
		{"invalid pid", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExecutableName(tt.pid)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatName(t *testing.T) {
	name, err := parseStatName("42 (kworker/0:1 (x)) S 2 0 0")
	require.NoError(t, err)
	assert.Equal(t, "kworker/0:1 (x)", name)

	_, err = parseStatName("42 S 2")
	assert.Error(t, err)

	_, err = parseStatName("42 () S 2")
	assert.Error(t, err)
}

func TestResolverCachesFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	root := fakeProc(t)
	withProcRoot(t, root)

	r := NewResolver()
	assert.Equal(t, "spotify", r.Name(100))
	assert.Equal(t, "", r.Name(400))

	// Appearing later does not change the cached answer within one scan.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "400"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "400", "stat"), []byte("400 (late) S"), 0644))
	assert.Equal(t, "", r.Name(400))
	assert.Equal(t, "late", NewResolver().Name(400))
}
