package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/metrics"
	"github.com/adspot/adspot/internal/settings"
	"github.com/adspot/adspot/internal/tracker"
	"github.com/adspot/adspot/internal/web"
)

var (
	runPort  int
	runNoWeb bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor in the foreground",
	Long: `Run the monitor in the foreground until interrupted.

The enabled switch is read from the settings file and followed live: edits
made with 'adspot settings set' or through the web API take effect without a
restart. On exit a mute applied by adspot is released.`,
	Example: `  adspot run
  adspot run --port 9000
  adspot run --no-web`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return runMonitor(cmd.Context(), cfg, logger)
	},
}

func init() {
	runCmd.Flags().IntVar(&runPort, "port", 0, "web server port (default from config)")
	runCmd.Flags().BoolVar(&runNoWeb, "no-web", false, "do not start the web server")
	RootCmd.AddCommand(runCmd)
}

// runMonitor hosts the tracker until a signal arrives.
func runMonitor(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}

	dm := newDaemon(cfg)
	if err := dm.Acquire(); err != nil {
		return err
	}
	defer dm.Release()

	db, repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := newSettingsStore(cfg, logger.Named("settings"))
	if err != nil {
		return err
	}
	current, err := store.EnsureDefault()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	m := metrics.New()
	svc := tracker.NewService(cfg, repo, platformFactory(logger), m, logger.Named("tracker"))
	svc.SetEnabled(current.Enabled)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		err := store.Watch(ctx, func(s settings.Settings) {
			svc.SetEnabled(s.Enabled)
		})
		if err != nil {
			logger.Warn("settings hot reload unavailable", zap.Error(err))
		}
	}()

	if cfg.Web.Enabled && !runNoWeb {
		handler := web.NewHandler(cfg, repo, store, svc, m.Handler(), logger.Named("web"))
		server := web.NewServer(cfg, handler, runPort, logger.Named("web"))
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("web server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("Starting adspot", zap.String("config", cfg.String()))

	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "monitor stopped")
	}

	logger.Info("adspot stopped")
	return nil
}
