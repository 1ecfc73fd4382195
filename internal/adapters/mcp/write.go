package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"autonotes/internal/application/commands"
	"autonotes/internal/domain"
)

// RegisterWriteTools adds all tools that change notes or settings.
func RegisterWriteTools(s *server.MCPServer, ctrl commands.Controller) {
	s.AddTool(checkTool(), checkHandler(ctrl))
	s.AddTool(setScheduledTimeTool(), setScheduledTimeHandler(ctrl))
	s.AddTool(setOptionTool(), setOptionHandler(ctrl))
}

// --- check ---

func checkTool() mcp.Tool {
	names := make([]string, 0, len(domain.Triggers()))
	for _, t := range domain.Triggers() {
		names = append(names, string(t))
	}
	return mcp.NewTool("check",
		mcp.WithDescription("Run one reconciliation pass: create missing periodic notes, close or unpin stale ones and open the current ones."),
		mcp.WithString("trigger",
			mcp.Description("Policy to run the pass under. Omit for a manual pass."),
			mcp.Enum(names...),
		),
	)
}

func checkHandler(ctrl commands.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trigger := req.GetString("trigger", "")

		result, err := commands.NewCheckCommand(ctrl, trigger).Execute(ctx)
		if err != nil {
			if result != nil {
				return mcp.NewToolResultError(result.Message + "\n" + err.Error()), nil
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- set_scheduled_time ---

func setScheduledTimeTool() mcp.Tool {
	return mcp.NewTool("set_scheduled_time",
		mcp.WithDescription("Set or clear this device's custom daily check time (HH:mm, 24 hour)."),
		mcp.WithString("time",
			mcp.Description("Time of day, e.g. 21:30. Omit together with clear=true to fall back to the shared default."),
		),
		mcp.WithBoolean("clear",
			mcp.Description("Remove this device's override"),
		),
	)
}

func setScheduledTimeHandler(ctrl commands.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tod := req.GetString("time", "")
		clearTime := req.GetBool("clear", false)

		result, err := commands.NewSetScheduledTimeCommand(ctrl, tod, clearTime).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- set_option ---

func setOptionTool() mcp.Tool {
	return mcp.NewTool("set_option",
		mcp.WithDescription("Turn one boolean setting on or off. Options: "+strings.Join(commands.OptionNames(), ", ")+"."),
		mcp.WithString("periodicity",
			mcp.Description("Periodicity the option belongs to. Omit for global options such as alwaysOpen."),
		),
		mcp.WithString("option",
			mcp.Description("Option name"),
			mcp.Required(),
		),
		mcp.WithBoolean("value",
			mcp.Description("New value"),
			mcp.Required(),
		),
	)
}

func setOptionHandler(ctrl commands.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		periodicity := req.GetString("periodicity", "")
		opt := req.GetString("option", "")
		value, err := req.RequireBool("value")
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewSetOptionCommand(ctrl, periodicity, opt, value).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
