package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autonotes/internal/app"
)

var (
	initialDelay time.Duration
	launch       bool
	noWatch      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	Long: `Run the startup check, then keep the periodic notes up to date until
interrupted. The daily check after midnight, the per-device custom time and
wake-up from suspension each trigger a pass; vault changes keep the note
index current.

Examples:
  autonotes run
  autonotes run --initial-delay 10s --launch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg, app.Options{Notices: os.Stderr, Launch: launch})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Sync(ctx); err != nil {
			a.Logger.Warn("index sync failed", zap.Error(err))
		}

		if initialDelay > 0 {
			a.Logger.Info("waiting before the startup check", zap.Duration("delay", initialDelay))
			select {
			case <-time.After(initialDelay):
			case <-ctx.Done():
				return nil
			}
		}

		if err := a.Orchestrator.Start(ctx); err != nil {
			return err
		}
		if err := a.Orchestrator.SyncAvailability(ctx); err != nil {
			a.Logger.Warn("failed to persist availability", zap.Error(err))
		}
		a.Logger.Info("running",
			zap.String("vault", cfg.Vault),
			zap.String("device", a.DeviceID),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.Wake.Run(gctx) })
		g.Go(func() error { return a.GitSchedule().Run(gctx) })
		if !noWatch {
			w := a.Watcher(nil)
			g.Go(func() error { return w.Run(gctx) })
		}

		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		a.Logger.Info("shutting down")
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVar(&initialDelay, "initial-delay", 0, "wait before the startup check")
	runCmd.Flags().BoolVar(&launch, "launch", false, "open loaded notes in the Obsidian app")
	runCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the vault for changes")
}
