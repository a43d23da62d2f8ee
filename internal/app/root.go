package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adspot/adspot/internal/config"
)

var (
	configPath string
	verbose    bool

	// RootCmd is the root command for adspot
	RootCmd = &cobra.Command{
		Use:   "adspot",
		Short: "Mute the speakers while a music player shows an ad",
		Long: `adspot watches the desktop's top-level windows and mutes the default
audio output while the target application shows its advertisement window,
then unmutes when the ad is gone.

The monitor only acts while enabled in the settings file. A fresh install
starts disabled: run 'adspot settings set --enabled' to switch it on.

Examples:
  # Run in the background with the web dashboard
  adspot start

  # Run in the foreground
  adspot run

  # See what adspot sees right now
  adspot scan

  # How much was muted this week
  adspot report week`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				// Set in the environment so a daemon child sees it too.
				return os.Setenv(config.ConfigFileEnv, configPath)
			}
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/adspot/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
