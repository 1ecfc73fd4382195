package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autonotes/internal/app"
	"autonotes/internal/application/commands"
	"autonotes/internal/domain"
)

var checkTrigger string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one reconciliation pass now",
	Long: `Create any missing periodic notes and open them, as a pass with the
given trigger would.

Examples:
  autonotes check
  autonotes check --trigger startup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, app.Options{Notices: os.Stderr})
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := commands.NewCheckCommand(a.Orchestrator, checkTrigger).Execute(ctx)
		if result != nil {
			for _, o := range result.Report.Outcomes {
				fmt.Println(commands.DescribeOutcome(o))
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	names := make([]string, 0, len(domain.Triggers()))
	for _, t := range domain.Triggers() {
		names = append(names, string(t))
	}
	checkCmd.Flags().StringVarP(&checkTrigger, "trigger", "t", "", "trigger to run as: "+strings.Join(names, ", ")+" (default manual)")
}
