// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fleetsight/fleetsight/internal/contract"
)

// NewMCPServer initializes and configures the Fleetsight MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Fleetsight Telemetry Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_telemetry ---
	s.AddTool(mcp.NewTool("analyze_telemetry",
		mcp.WithDescription("Run anomaly detection over a Parquet telemetry batch and return the ranked anomalies."),
		mcp.WithString("input_file", mcp.Description("Path to the Parquet telemetry file."), mcp.Required()),
		mcp.WithNumber("window", mcp.Description("Rolling window size for trend enrichment.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of anomalies returned.")),
	), h.handleAnalyzeTelemetry)

	// --- 2. Tool: get_executive_summary ---
	s.AddTool(mcp.NewTool("get_executive_summary",
		mcp.WithDescription("Run the pipeline over a Parquet telemetry batch and return the fleet executive summary with per-vehicle risk profiles."),
		mcp.WithString("input_file", mcp.Description("Path to the Parquet telemetry file."), mcp.Required()),
	), h.handleGetExecutiveSummary)

	// --- 3. Tool: get_fleet_overview ---
	s.AddTool(mcp.NewTool("get_fleet_overview",
		mcp.WithDescription("Return the fleet-wide overview computed from all persisted runs in the result store."),
	), h.handleGetFleetOverview)

	// --- 4. Tool: get_vehicle_health ---
	s.AddTool(mcp.NewTool("get_vehicle_health",
		mcp.WithDescription("Return per-vehicle health aggregates from the result store, highest anomaly count first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of vehicles returned.")),
	), h.handleGetVehicleHealth)

	// --- 5. Tool: get_harsh_events ---
	s.AddTool(mcp.NewTool("get_harsh_events",
		mcp.WithDescription("Return harsh acceleration and braking events from the result store, most recent first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of events returned.")),
	), h.handleGetHarshEvents)

	// --- 6. Tool: get_idle_waste ---
	s.AddTool(mcp.NewTool("get_idle_waste",
		mcp.WithDescription("Return wasteful idle events grouped by vehicle and day from the result store."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleGetIdleWaste)

	return s
}

// StartMCPServer starts the Fleetsight MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
