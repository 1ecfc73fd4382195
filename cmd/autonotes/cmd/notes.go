package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autonotes/internal/app"
	"autonotes/internal/application/commands"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect periodic notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list <periodicity>",
	Short: "List the notes of one periodicity",
	Long: `List every note of a periodicity known to the vault. The note of the
current period is marked with "*".

Examples:
  autonotes notes list daily
  autonotes notes list weekly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := commands.NewListNotesCommand(a.Store, args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		for _, p := range result.Paths {
			marker := " "
			if result.Current != nil && result.Current.Path == p {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd)
}
