package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"autonotes/internal/application/commands"
	"autonotes/internal/ports"
)

// RegisterReadTools adds all read-only tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, ctrl commands.Controller, store ports.DocumentStore) {
	s.AddTool(statusTool(), statusHandler(ctrl))
	s.AddTool(settingsTool(), settingsHandler(ctrl))
	s.AddTool(listNotesTool(), listNotesHandler(store))
}

// --- status ---

func statusTool() mcp.Tool {
	return mcp.NewTool("status",
		mcp.WithDescription("Show this device's schedule: armed timers, the next custom check, the last custom run and the outcome of the last pass."),
	)
}

func statusHandler(ctrl commands.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := commands.NewStatusCommand(ctrl).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(commands.FormatStatus(st)), nil
	}
}

// --- settings ---

func settingsTool() mcp.Tool {
	return mcp.NewTool("get_settings",
		mcp.WithDescription("Return the effective settings as JSON."),
	)
}

func settingsHandler(ctrl commands.Controller) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.MarshalIndent(ctrl.Settings(), "", "  ")
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// --- list_notes ---

func listNotesTool() mcp.Tool {
	return mcp.NewTool("list_notes",
		mcp.WithDescription("List the periodic notes of one kind. The note of the current period is marked with *."),
		mcp.WithString("periodicity",
			mcp.Description("daily, weekly, monthly, quarterly or yearly"),
			mcp.Required(),
		),
	)
}

func listNotesHandler(store ports.DocumentStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		periodicity := req.GetString("periodicity", "")

		result, err := commands.NewListNotesCommand(store, periodicity).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(result.Paths) == 0 {
			return mcp.NewToolResultText("No results."), nil
		}

		var sb strings.Builder
		for _, p := range result.Paths {
			marker := " "
			if result.Current != nil && result.Current.Path == p {
				marker = "*"
			}
			fmt.Fprintf(&sb, "%s %s\n", marker, p)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
