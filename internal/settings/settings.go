// Package settings persists the user-facing switches of adspot in a small
// JSON file and watches it for edits made by other processes.
package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Load when the settings file does not exist.
var ErrNotFound = errors.New("settings file not found")

// Settings is the persisted user state.
type Settings struct {
	Enabled bool `json:"enabled"`
}

// Default is what a first run starts with: monitoring off until the user
// turns it on.
func Default() Settings {
	return Settings{Enabled: false}
}

// Store reads and writes one settings file.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore creates a store for the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), ErrNotFound
		}
		return Default(), errors.Wrapf(err, "failed to read %s", s.path)
	}

	settings := Default()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Default(), errors.Wrapf(err, "failed to parse %s", s.path)
	}
	return settings, nil
}

// Save writes the settings atomically, creating the parent directory.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp settings file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write settings")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace %s", s.path)
	}
	return nil
}

// EnsureDefault creates the settings file with defaults when missing and
// returns the current settings either way.
func (s *Store) EnsureDefault() (Settings, error) {
	settings, err := s.Load()
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("creating default settings", zap.String("path", s.path))
		settings = Default()
		return settings, s.Save(settings)
	}
	return settings, err
}

// Watch calls fn with freshly loaded settings every time the file is written,
// created or renamed into place. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create settings watcher")
	}
	defer watcher.Close()

	// Watch the directory: Save replaces the file, which drops a file watch.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settings, err := s.Load()
			if err != nil {
				// Editors often truncate before writing; the next event carries the content.
				s.logger.Debug("ignoring unreadable settings", zap.Error(err))
				continue
			}
			fn(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}
