package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adspot/adspot/internal/daemon"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitor in the background",
	Long: `Start the monitor as a background process detached from the terminal.

Logs go to the daemon log file (see 'adspot status'). Use 'adspot stop' to
end it.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&runPort, "port", 0, "web server port (default from config)")
	startCmd.Flags().BoolVar(&runNoWeb, "no-web", false, "do not start the web server")
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if daemon.IsChild() {
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()
		return runMonitor(cmd.Context(), cfg, logger)
	}

	running, pid, err := newDaemon(cfg).IsRunning()
	if err != nil {
		return err
	}
	if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	process, err := daemon.Spawn(os.Args[1:], cfg.Daemon.LogFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon started successfully (PID: %d)\n", process.Pid)
	if cfg.Web.Enabled && !runNoWeb {
		port := cfg.Web.Port
		if runPort > 0 {
			port = runPort
		}
		fmt.Fprintf(out, "Dashboard: http://%s:%d\n", cfg.Web.Host, port)
	}
	fmt.Fprintf(out, "Logs: %s\n", cfg.Daemon.LogFile)
	return process.Release()
}
