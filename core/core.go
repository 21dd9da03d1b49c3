package core

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/internal/ingest"
	"github.com/fleetsight/fleetsight/internal/outwriter"
	"github.com/fleetsight/fleetsight/internal/parquet"
	"github.com/fleetsight/fleetsight/internal/telstore"
)

// ExecuteAnalyze runs the full batch pipeline over the input file and
// prints the anomaly results. It serves as the main entry point for the
// 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	outwriter.LogAnalysisHeader(cfg)

	records, err := parquet.ReadTelemetry(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read telemetry input: %w", err)
	}

	result, err := RunPipeline(ctx, cfg, records)
	if err != nil {
		return err
	}
	for _, perr := range result.PartitionErrors {
		contract.LogWarn("Vehicle partition failed", perr)
	}

	persistRun(cfg, mgr, result, start)

	insights := BuildVehicleInsights(result.Records, cfg.Thresholds)
	overview := BuildFleetOverview(result, insights)

	duration := time.Since(start)
	return outwriter.WriteAnomalyResults(result.Records, result.Quarantined, overview, cfg, duration)
}

// ExecuteSummarize runs the pipeline over the input file and prints the
// executive summary plus the per-vehicle risk profiles.
func ExecuteSummarize(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	outwriter.LogAnalysisHeader(cfg)

	records, err := parquet.ReadTelemetry(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read telemetry input: %w", err)
	}

	result, err := RunPipeline(ctx, cfg, records)
	if err != nil {
		return err
	}
	for _, perr := range result.PartitionErrors {
		contract.LogWarn("Vehicle partition failed", perr)
	}

	persistRun(cfg, mgr, result, start)

	insights := BuildVehicleInsights(result.Records, cfg.Thresholds)
	overview := BuildFleetOverview(result, insights)
	summary := RenderExecutiveSummary(overview, insights)

	return outwriter.WriteSummary(summary, insights, cfg)
}

// ExecuteGenerate produces a synthetic telemetry batch and writes it as
// Parquet to the configured output file.
func ExecuteGenerate(cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for generate")
	}

	gen := ingest.NewGenerator(ingest.GeneratorOptions{
		Vehicles: cfg.GenVehicles,
		Records:  cfg.GenRecords,
		Interval: cfg.GenInterval,
		Seed:     cfg.GenSeed,
	})
	records := gen.Generate()

	if err := parquet.WriteTelemetry(records, cfg.OutputFile); err != nil {
		return fmt.Errorf("failed to write telemetry batch: %w", err)
	}

	fmt.Printf("Generated %d records for %d vehicles to %s\n", len(records), cfg.GenVehicles, cfg.OutputFile)
	return nil
}

// ExecuteFleetReport prints the fleet-wide overview from the result store.
func ExecuteFleetReport(cfg *contract.Config, mgr contract.StoreManager) error {
	overview, err := mgr.GetResultStore().FleetOverview()
	if err != nil {
		return fmt.Errorf("fleet overview query failed: %w", err)
	}
	return outwriter.WriteFleetOverview(overview, cfg)
}

// ExecuteVehicleReport prints the per-vehicle health report from the
// result store, worst vehicles first.
func ExecuteVehicleReport(cfg *contract.Config, mgr contract.StoreManager) error {
	rows, err := mgr.GetResultStore().VehicleHealth(cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("vehicle health query failed: %w", err)
	}
	return outwriter.WriteVehicleHealth(rows, cfg)
}

// ExecuteHarshReport prints recent harsh driving events from the result
// store.
func ExecuteHarshReport(cfg *contract.Config, mgr contract.StoreManager) error {
	rows, err := mgr.GetResultStore().HarshEvents(cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("harsh events query failed: %w", err)
	}
	return outwriter.WriteHarshEvents(rows, cfg)
}

// ExecuteIdleReport prints the idle fuel waste report from the result
// store.
func ExecuteIdleReport(cfg *contract.Config, mgr contract.StoreManager) error {
	rows, err := mgr.GetResultStore().IdleWaste(cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("idle waste query failed: %w", err)
	}
	return outwriter.WriteIdleWaste(rows, cfg)
}

// persistRun records the batch to the result store when one is configured.
// Tracking failures are logged and never abort the run.
func persistRun(cfg *contract.Config, mgr contract.StoreManager, result *PipelineResult, start time.Time) {
	if mgr == nil {
		return
	}
	store := mgr.GetResultStore()
	if store == nil {
		return
	}

	configParams := map[string]any{
		"input_file":    cfg.InputFile,
		"window":        cfg.WindowSize,
		"workers":       cfg.Workers,
		"contamination": cfg.Model.Contamination,
		"seed":          cfg.Model.Seed,
	}
	runID, err := store.BeginRun(start, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return
	}
	if runID == 0 {
		return
	}

	anomalyRows, err := telstore.AnomalyRows(runID, result.Records)
	if err != nil {
		contract.LogWarn("Failed to flatten anomaly rows", err)
		return
	}
	if err := store.RecordAnomalies(runID, anomalyRows); err != nil {
		contract.LogWarn("Failed to record anomaly rows", err)
	}

	quarantineRows := telstore.QuarantineRows(runID, result.Quarantined)
	if err := store.RecordQuarantined(runID, quarantineRows); err != nil {
		contract.LogWarn("Failed to record quarantine rows", err)
	}

	anomalies := 0
	for i := range result.Records {
		if result.Records[i].IsAnomalous {
			anomalies++
		}
	}
	if err := store.EndRun(runID, time.Now(), len(result.Records), anomalies, len(result.Quarantined)); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
