package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"autonotes/internal/adapters/editor"
	"autonotes/internal/adapters/obsidian"
	"autonotes/internal/adapters/tui"
	"autonotes/internal/adapters/tui/views"
	"autonotes/internal/app"
	"autonotes/internal/config"
)

func main() {
	vaultFlag := flag.String("vault", "", "path to the vault")
	passive := flag.Bool("passive", false, "only show status, do not run the schedule")
	flag.Parse()

	if err := run(*vaultFlag, *passive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(vault string, passive bool) error {
	cfg, err := config.LoadForVault(vault)
	if err != nil {
		return err
	}

	// the terminal belongs to the dashboard
	logFile := filepath.Join(cfg.DataDir, "autonotes-tui.log")
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}
	a, err := app.New(cfg, app.Options{LogOutput: []string{logFile}})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Sync(ctx); err != nil {
		a.Logger.Warn("index sync failed", zap.Error(err))
	}
	if passive {
		if err := a.Orchestrator.Load(ctx); err != nil {
			return err
		}
	} else {
		if err := a.Orchestrator.Start(ctx); err != nil {
			return err
		}
		go func() {
			if err := a.Wake.Run(ctx); err != nil && ctx.Err() == nil {
				a.Logger.Warn("wake detector stopped", zap.Error(err))
			}
		}()
		go func() {
			if err := a.Watcher(nil).Run(ctx); err != nil && ctx.Err() == nil {
				a.Logger.Warn("watcher stopped", zap.Error(err))
			}
		}()
	}

	model := tui.NewApp(views.Deps{
		Ctrl:      a.Orchestrator,
		Store:     a.Store,
		Notices:   a.Notices,
		Editor:    editor.NewOpener(),
		Obsidian:  obsidian.NewOpener(cfg.Vault),
		VaultPath: cfg.Vault,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
