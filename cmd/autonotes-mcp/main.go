package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "autonotes/internal/adapters/mcp"
	"autonotes/internal/app"
	"autonotes/internal/config"
)

func main() {
	vaultFlag := flag.String("vault", "", "path to the vault")
	flag.Parse()

	cfg, err := config.LoadForVault(*vaultFlag)
	if err != nil {
		log.Fatalf("autonotes-mcp: %v", err)
	}

	// stdout carries the protocol
	a, err := app.New(cfg, app.Options{LogOutput: []string{"stderr"}})
	if err != nil {
		log.Fatalf("autonotes-mcp: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.Sync(ctx); err != nil {
		a.Logger.Warn("index sync failed", zap.Error(err))
	}
	if err := a.Orchestrator.Load(ctx); err != nil {
		log.Fatalf("autonotes-mcp: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"autonotes-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, a.Orchestrator, a.Store)
	mcpadapter.RegisterWriteTools(mcpServer, a.Orchestrator)

	if err := server.ServeStdio(mcpServer); err != nil {
		a.Logger.Error("server stopped", zap.Error(err))
	}
}
