package app

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/daemon"
	"github.com/adspot/adspot/internal/database"
	"github.com/adspot/adspot/internal/logging"
	"github.com/adspot/adspot/internal/settings"
	"github.com/adspot/adspot/internal/tracker"
	"github.com/adspot/adspot/pkg/audio"
	"github.com/adspot/adspot/pkg/detector"
	"github.com/adspot/adspot/pkg/monitor"
	"github.com/adspot/adspot/pkg/window"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:       level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	return logger, nil
}

func openRepository(cfg *config.Config) (*database.DB, *database.Repository, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "failed to initialize database")
	}

	return db, database.NewRepository(db), nil
}

func newSettingsStore(cfg *config.Config, logger *zap.Logger) (*settings.Store, error) {
	path, err := cfg.SettingsPath()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(path, logger), nil
}

func newDaemon(cfg *config.Config) *daemon.Daemon {
	return daemon.New(cfg.Daemon.PIDFile, cfg.LockFile())
}

// platformFactory builds the inspector and audio backend for this OS. It runs
// on the tracker's locked thread.
func platformFactory(logger *zap.Logger) tracker.Factory {
	return func() (window.Inspector, audio.Backend, error) {
		inspector, err := detector.NewInspector(logger.Named("inspector"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to initialize window inspector")
		}

		backend, err := detector.NewAudioBackend()
		if err != nil {
			inspector.Close()
			return nil, nil, fmt.Errorf("%w: %v", monitor.ErrAudioInit, err)
		}

		return inspector, backend, nil
	}
}
