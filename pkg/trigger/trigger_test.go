package trigger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adspot/adspot/pkg/window"
)

var spotify = Config{TargetExecutable: "target.exe", TriggerTitle: "Advertisement"}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []window.Window
		want     bool
	}{
		{
			name:     "Single window match",
			snapshot: []window.Window{{Title: "Advertisement", ProcessName: "target.exe"}},
			want:     true,
		},
		{
			name:     "Process name is case-insensitive",
			snapshot: []window.Window{{Title: "Advertisement", ProcessName: "TARGET.EXE"}},
			want:     true,
		},
		{
			name:     "Title is case-sensitive",
			snapshot: []window.Window{{Title: "advertisement", ProcessName: "target.exe"}},
			want:     false,
		},
		{
			name: "No match among many",
			snapshot: []window.Window{
				{Title: "Spotify Premium", ProcessName: "target.exe"},
				{Title: "Advertisement", ProcessName: "other.exe"},
			},
			want: false,
		},
		{
			name: "Unresolved owner never matches",
			snapshot: []window.Window{
				{Title: "Advertisement", ProcessName: ""},
			},
			want: false,
		},
		{
			name: "Title with surrounding text does not match",
			snapshot: []window.Window{
				{Title: "Advertisement - Spotify", ProcessName: "target.exe"},
			},
			want: false,
		},
		{
			name:     "Empty snapshot",
			snapshot: nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snapshot, spotify))
		})
	}
}

func TestEvaluateOrderIndependent(t *testing.T) {
	snapshot := []window.Window{
		{Title: "Spotify Premium", ProcessName: "target.exe"},
		{Title: "Inbox", ProcessName: "mail.exe"},
		{Title: "Advertisement", ProcessName: "other.exe"},
		{Title: "Advertisement", ProcessName: "Target.exe"},
		{Title: "Task Manager", ProcessName: ""},
	}
	want := Evaluate(snapshot, spotify)
	assert.True(t, want)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]window.Window(nil), snapshot...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Evaluate(shuffled, spotify), "permutation %v", shuffled)
	}
}

func TestMatchReturnsWindow(t *testing.T) {
	snapshot := []window.Window{
		{Title: "Spotify Premium", ProcessName: "target.exe"},
		{Title: "Advertisement", ProcessName: "Target.EXE"},
	}
	w, ok := Match(snapshot, spotify)
	assert.True(t, ok)
	assert.Equal(t, "Target.EXE", w.ProcessName)
}

func TestEmptyConfigNeverMatches(t *testing.T) {
	snapshot := []window.Window{{Title: "", ProcessName: ""}}
	assert.False(t, Evaluate(snapshot, Config{}))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, spotify.Validate())
	assert.Error(t, Config{TriggerTitle: "Advertisement"}.Validate())
	assert.Error(t, Config{TargetExecutable: "  "}.Validate())
	assert.Error(t, Config{TargetExecutable: "target.exe"}.Validate())
}
