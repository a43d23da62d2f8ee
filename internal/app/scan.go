package app

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adspot/adspot/pkg/detector"
	"github.com/adspot/adspot/pkg/trigger"
	"github.com/adspot/adspot/pkg/utils"
	"github.com/adspot/adspot/pkg/window"
)

var (
	scanAll   bool
	scanAudio bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show the windows adspot sees and whether the trigger matches",
	Long: `Take one snapshot of the top-level windows and evaluate the trigger
against it, without touching the audio.

By default only windows owned by the target executable are listed; use --all
to list every titled window.`,
	Example: `  adspot scan
  adspot scan --all
  adspot scan --audio`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runScan(cmd.OutOrStdout(), cfg.TriggerConfig(), scanAll, scanAudio)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "list every titled window")
	scanCmd.Flags().BoolVar(&scanAudio, "audio", false, "also read the default output's mute state")
	RootCmd.AddCommand(scanCmd)
}

func runScan(out io.Writer, tc trigger.Config, all, withAudio bool) error {
	inspector, err := detector.NewInspector(zap.NewNop())
	if err != nil {
		return err
	}
	defer inspector.Close()

	snapshot, scanErr := inspector.Snapshot()
	printScan(out, inspector.Name(), snapshot, tc, all)
	if scanErr != nil {
		fmt.Fprintf(out, "\nWarning: scan incomplete: %v\n", scanErr)
	}

	if withAudio {
		printMuteState(out)
	}
	return nil
}

func printScan(out io.Writer, source string, snapshot []window.Window, tc trigger.Config, all bool) {
	fmt.Fprintf(out, "Inspector: %s (%d windows)\n", source, len(snapshot))
	fmt.Fprintf(out, "Trigger: %q owned by %s\n\n", tc.TriggerTitle, tc.TargetExecutable)

	listed := make([]window.Window, 0, len(snapshot))
	for _, w := range snapshot {
		if all || strings.EqualFold(w.ProcessName, tc.TargetExecutable) {
			listed = append(listed, w)
		}
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return strings.ToLower(listed[i].ProcessName) < strings.ToLower(listed[j].ProcessName)
	})

	if len(listed) == 0 {
		fmt.Fprintf(out, "No windows owned by %s.\n", tc.TargetExecutable)
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROCESS\tTITLE\tMATCH")
		for _, w := range listed {
			process := w.ProcessName
			if process == "" {
				process = "(unknown)"
			}
			match := ""
			if tc.Matches(w) {
				match = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", utils.Truncate(process, 32), utils.Truncate(w.Title, 60), match)
		}
		tw.Flush()
	}

	if m, ok := trigger.Match(snapshot, tc); ok {
		fmt.Fprintf(out, "\nTrigger ACTIVE: %q (%s)\n", m.Title, m.ProcessName)
	} else {
		fmt.Fprintln(out, "\nTrigger inactive")
	}
}

func printMuteState(out io.Writer) {
	// The audio backend is bound to the thread that created it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	backend, err := detector.NewAudioBackend()
	if err != nil {
		fmt.Fprintf(out, "Audio: unavailable (%v)\n", err)
		return
	}
	defer backend.Close()

	endpoint, err := backend.Acquire()
	if err != nil {
		fmt.Fprintf(out, "Audio: no default output (%v)\n", err)
		return
	}
	defer endpoint.Release()

	muted, err := endpoint.Muted()
	if err != nil {
		fmt.Fprintf(out, "Audio: %s, mute state unreadable (%v)\n", backend.Name(), err)
		return
	}
	fmt.Fprintf(out, "Audio: %s, muted=%v\n", backend.Name(), muted)
}
