package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homeagent/pkg/tools"
)

// Names of the tools served next to the catalog
const (
	ToolProcessCommand = "process_command"
	ToolListDevices    = "list_devices"
	ToolGetDevice      = "get_device"
	ToolGetHistory     = "get_history"
)

// registerTools registers the catalog and the helper tools with the server
func (s *Server) registerTools() {
	for _, d := range tools.Catalog() {
		s.mcpServer.AddTool(
			mcp.NewToolWithRawSchema(string(d.Name), d.Description, d.Schema()),
			s.catalogHandler(d.Name),
		)
	}

	s.mcpServer.AddTool(
		mcp.NewTool(ToolProcessCommand,
			mcp.WithDescription("Run a natural-language home command (e.g. \"turn on the kitchen lights\") through the assistant and return its response"),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("The command as the user would say it"),
			),
		),
		s.handleProcessCommand,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(ToolListDevices,
			mcp.WithDescription("List devices with their current state, optionally limited to one room"),
			mcp.WithString("room",
				mcp.Description("Room name (e.g. living_room, bedroom)"),
			),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(ToolGetDevice,
			mcp.WithDescription("Get one device with its state and state schema"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id (e.g. light_living)"),
			),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(ToolGetHistory,
			mcp.WithDescription("Return the most recent command history entries, oldest first"),
			mcp.WithNumber("limit",
				mcp.Description("Entries to return (default 20)"),
			),
		),
		s.handleGetHistory,
	)
}
