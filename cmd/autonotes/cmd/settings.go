package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"autonotes/internal/app"
	"autonotes/internal/application/commands"
)

var (
	settingsOutput string
	clearTime      bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the synced settings",
	Long: `Show or change the settings stored in the vault. Changes are shared by
every device that syncs the vault, except the scheduled time which is kept
per device.

Examples:
  autonotes settings show --output yaml
  autonotes settings set-time 22:30
  autonotes settings set-time --clear
  autonotes settings enable enableAdvancedScheduling daily
  autonotes settings disable gitCommit`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		raw := a.Orchestrator.Settings().Raw()
		switch settingsOutput {
		case "json":
			data, err := json.MarshalIndent(raw, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any(raw)); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown output format: %s", settingsOutput)
		}
		return nil
	},
}

var setTimeCmd = &cobra.Command{
	Use:   "set-time [HH:mm]",
	Short: "Set or clear this device's scheduled check time",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		var tod string
		if len(args) == 1 {
			tod = args[0]
		}
		result, err := commands.NewSetScheduledTimeCommand(a.Orchestrator, tod, clearTime).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func optionCommand(use string, value bool) *cobra.Command {
	verb := "Disable"
	if value {
		verb = "Enable"
	}
	return &cobra.Command{
		Use:       use + " <option> [periodicity]",
		Short:     verb + " an option, globally or for one periodicity",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: commands.OptionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			var periodicity string
			if len(args) == 2 {
				periodicity = args[1]
			}
			result, err := commands.NewSetOptionCommand(a.Orchestrator, periodicity, args[0], value).Execute(ctx)
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(setTimeCmd)
	settingsCmd.AddCommand(optionCommand("enable", true))
	settingsCmd.AddCommand(optionCommand("disable", false))

	settingsShowCmd.Flags().StringVarP(&settingsOutput, "output", "o", "yaml", "output format: json or yaml")
	setTimeCmd.Flags().BoolVar(&clearTime, "clear", false, "remove the scheduled time for this device")
}
