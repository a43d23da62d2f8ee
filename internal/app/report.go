package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adspot/adspot/internal/reporter"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:       "report [day|week|month]",
	Short:     "Summarize muted interruptions for a period",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"day", "week", "month"},
	Example: `  adspot report
  adspot report week --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := "day"
		if len(args) > 0 {
			periodType = args[0]
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

		rep := reporter.New(repo)
		report, err := rep.GenerateReport(periodType)
		if err != nil {
			return err
		}

		if reportJSON {
			jsonStr, err := rep.FormatReportJSON(report)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonStr)
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), rep.FormatReportText(report))
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output JSON")
	RootCmd.AddCommand(reportCmd)
}
