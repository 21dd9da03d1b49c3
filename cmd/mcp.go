package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fleetsight/fleetsight/internal/mcp"
)

// mcpCmd starts the MCP server over stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long: `Serve telemetry analysis over the Model Context Protocol (stdio).

Exposes tools for AI assistants to run anomaly detection on telemetry
batches and to query the result store:
- analyze_telemetry
- get_executive_summary
- get_fleet_overview
- get_vehicle_health
- get_harsh_events
- get_idle_waste

Examples:
  # Start the server (typically launched by an MCP client)
  fleetsight mcp`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
