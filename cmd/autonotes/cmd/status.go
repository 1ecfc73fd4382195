package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autonotes/internal/app"
	"autonotes/internal/application/commands"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schedule for this device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := commands.NewStatusCommand(a.Orchestrator).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Print(commands.FormatStatus(st))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
