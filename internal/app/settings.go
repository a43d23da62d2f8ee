package app

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/adspot/adspot/internal/settings"
)

var settingsEnabled bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change the persisted settings",
	Long: `Read or change the settings file. A running monitor picks up changes
immediately.`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings()
		if err != nil {
			return err
		}

		current, err := store.Load()
		if err != nil && !errors.Is(err, settings.ErrNotFound) {
			return err
		}

		data, err := json.Marshal(current)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the settings",
	Example: `  adspot settings set --enabled
  adspot settings set --enabled=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("enabled") {
			return errors.New("nothing to change: pass --enabled=true|false")
		}

		store, err := openSettings()
		if err != nil {
			return err
		}

		current, err := store.Load()
		if err != nil && !errors.Is(err, settings.ErrNotFound) {
			return err
		}
		current.Enabled = settingsEnabled

		if err := store.Save(current); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Monitoring enabled: %v\n", current.Enabled)
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().BoolVar(&settingsEnabled, "enabled", false, "turn monitoring on or off")
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	RootCmd.AddCommand(settingsCmd)
}

func openSettings() (*settings.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newSettingsStore(cfg, nil)
}
