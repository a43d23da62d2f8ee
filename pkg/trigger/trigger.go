// Package trigger decides whether the interruption state is showing.
package trigger

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/window"
)

// Config names the window that signals an interruption.
// It is a plain value and is never mutated after construction.
type Config struct {
	TargetExecutable string // compared case-insensitively
	TriggerTitle     string // compared exactly
}

// Validate rejects configs that could never match a window.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TargetExecutable) == "" {
		return errors.New("target executable cannot be empty")
	}
	if c.TriggerTitle == "" {
		return errors.New("trigger title cannot be empty")
	}
	return nil
}

// Matches reports whether a single window satisfies the trigger condition.
func (c Config) Matches(w window.Window) bool {
	return w.Title == c.TriggerTitle && strings.EqualFold(w.ProcessName, c.TargetExecutable)
}

// Evaluate reports whether any window in the snapshot is the trigger window.
func Evaluate(snapshot []window.Window, cfg Config) bool {
	_, ok := Match(snapshot, cfg)
	return ok
}

// Match returns the first window satisfying the trigger condition.
func Match(snapshot []window.Window, cfg Config) (window.Window, bool) {
	if cfg.TargetExecutable == "" || cfg.TriggerTitle == "" {
		return window.Window{}, false
	}
	for _, w := range snapshot {
		if cfg.Matches(w) {
			return w, true
		}
	}
	return window.Window{}, false
}
