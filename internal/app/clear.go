package app

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	clearYes       bool
	clearOlderThan time.Duration
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded mute events and errors",
	Long: `Delete the recorded history. With --older-than only mute events older
than the given age are removed.`,
	Example: `  adspot clear
  adspot clear --older-than 720h --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if !clearYes {
			fmt.Fprint(out, "This will delete recorded history. Are you sure? (yes/no): ")
			response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "yes" && response != "y" {
				fmt.Fprintln(out, "Operation cancelled")
				return nil
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, repo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if clearOlderThan > 0 {
			n, err := repo.DeleteOldEvents(time.Now().Add(-clearOlderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d events\n", n)
			return nil
		}

		if err := repo.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Database cleared successfully")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")
	clearCmd.Flags().DurationVar(&clearOlderThan, "older-than", 0, "only delete events older than this age")
	RootCmd.AddCommand(clearCmd)
}
