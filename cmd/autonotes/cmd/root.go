package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autonotes/internal/app"
	"autonotes/internal/config"
)

var (
	vaultPath string
	logLevel  string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "autonotes",
	Short: "Keep periodic notes created and open in an Obsidian vault",
	Long: `autonotes creates the daily, weekly, monthly, quarterly and yearly notes
of an Obsidian vault as their periods begin, and keeps the current ones open
in the workspace.

Run "autonotes run" to keep it going in the background, or use the other
commands for one-off checks and settings changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		loaded, err := config.LoadForVault(vaultPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", "", "path to the vault (default from config or "+config.DefaultVaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// newApp wires the components and loads the persisted settings. The caller
// closes the app.
func newApp(ctx context.Context, opts app.Options) (*app.App, error) {
	a, err := app.New(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := a.Sync(ctx); err != nil {
		a.Logger.Warn("index sync failed", zap.Error(err))
	}
	if err := a.Orchestrator.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
