package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fleetsight/fleetsight/core"
	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/internal/parquet"
	"github.com/fleetsight/fleetsight/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// runBatch reads the input file and runs the full pipeline with the
// handler's base configuration overridden by tool arguments.
func (h *toolHandler) runBatch(ctx context.Context, cfg *contract.Config) (*core.PipelineResult, error) {
	records, err := parquet.ReadTelemetry(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry input: %w", err)
	}
	return core.RunPipeline(ctx, cfg, records)
}

func (h *toolHandler) handleAnalyzeTelemetry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputFile = request.GetString("input_file", "")
	if w := request.GetInt("window", 0); w > 0 {
		cfg.WindowSize = w
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if cfg.InputFile == "" {
		return mcp.NewToolResultError("input_file is required"), nil
	}

	result, err := h.runBatch(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	var anomalies []schema.AnomalyRecord
	for i := range result.Records {
		if result.Records[i].IsAnomalous {
			anomalies = append(anomalies, result.Records[i])
		}
	}
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].CombinedSeverity > anomalies[j].CombinedSeverity
	})
	if cfg.ResultLimit > 0 && len(anomalies) > cfg.ResultLimit {
		anomalies = anomalies[:cfg.ResultLimit]
	}

	payload := struct {
		TotalRecords int                        `json:"total_records"`
		Anomalies    []schema.AnomalyRecord     `json:"anomalies"`
		Quarantined  []schema.QuarantinedRecord `json:"quarantined"`
	}{
		TotalRecords: len(result.Records),
		Anomalies:    anomalies,
		Quarantined:  result.Quarantined,
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetExecutiveSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputFile = request.GetString("input_file", "")
	if cfg.InputFile == "" {
		return mcp.NewToolResultError("input_file is required"), nil
	}

	result, err := h.runBatch(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	insights := core.BuildVehicleInsights(result.Records, cfg.Thresholds)
	overview := core.BuildFleetOverview(result, insights)
	summary := core.RenderExecutiveSummary(overview, insights)

	payload := struct {
		Summary  string                  `json:"summary"`
		Overview schema.FleetOverview    `json:"overview"`
		Vehicles []schema.VehicleInsight `json:"vehicles"`
	}{
		Summary:  summary,
		Overview: overview,
		Vehicles: insights,
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetFleetOverview(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overview, err := h.mgr.GetResultStore().FleetOverview()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fleet overview query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(overview, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetVehicleHealth(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}

	rows, err := h.mgr.GetResultStore().VehicleHealth(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("vehicle health query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetHarshEvents(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}

	rows, err := h.mgr.GetResultStore().HarshEvents(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("harsh events query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetIdleWaste(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}

	rows, err := h.mgr.GetResultStore().IdleWaste(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("idle waste query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
