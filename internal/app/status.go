package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adspot/adspot/internal/config"
	"github.com/adspot/adspot/internal/settings"
	"github.com/adspot/adspot/internal/tracker"
	"github.com/adspot/adspot/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon state and evaluate the trigger now",
	Long: `Display whether the background monitor is running, its live state when
the web API is reachable, the enabled switch, and a fresh scan of the trigger.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid, err := newDaemon(cfg).IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}

	if running {
		fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
	} else {
		fmt.Fprintln(out, "Status: Not running")
	}
	fmt.Fprintf(out, "Poll Interval: %v\n", cfg.Monitor.PollInterval)
	fmt.Fprintf(out, "Log File: %s\n", cfg.Daemon.LogFile)

	if store, err := newSettingsStore(cfg, nil); err == nil {
		current, err := store.Load()
		switch {
		case errors.Is(err, settings.ErrNotFound):
			fmt.Fprintln(out, "Enabled: false (no settings file yet)")
		case err != nil:
			fmt.Fprintf(out, "Enabled: unknown (%v)\n", err)
		default:
			fmt.Fprintf(out, "Enabled: %v\n", current.Enabled)
		}
	}

	if running && cfg.Web.Enabled {
		if live, err := fetchStatus(cfg); err == nil {
			printLiveStatus(out, live)
		} else {
			fmt.Fprintf(out, "\nLive state unavailable: %v\n", err)
		}
	}

	fmt.Fprintln(out)
	return runScan(out, cfg.TriggerConfig(), false, false)
}

func fetchStatus(cfg *config.Config) (*tracker.Status, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s:%d/api/status", cfg.Web.Host, cfg.Web.Port))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}

	var status tracker.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, errors.Wrap(err, "failed to decode status")
	}
	return &status, nil
}

func printLiveStatus(out io.Writer, s *tracker.Status) {
	fmt.Fprintf(out, "\nMonitor:\n")
	fmt.Fprintf(out, "  Run: %s\n", s.RunID)
	fmt.Fprintf(out, "  Windows: %s, Audio: %s\n", s.Inspector, s.Backend)
	fmt.Fprintf(out, "  Muted: %v, Trigger active: %v\n", s.Muted, s.TriggerActive)
	fmt.Fprintf(out, "  Ticks: %d", s.Ticks)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(out, " over %s", utils.FormatDuration(time.Since(s.StartedAt)))
	}
	fmt.Fprintln(out)
	if s.LastError != "" {
		fmt.Fprintf(out, "  Last error: %s\n", s.LastError)
	}
}
