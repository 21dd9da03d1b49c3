package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fleetsight/fleetsight/core"
)

// analyzeCmd runs the full batch pipeline over a telemetry file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [telemetry.parquet]",
	Short: "Detect anomalies in a vehicle telemetry batch",
	Long: `Run the full detection pipeline over a Parquet telemetry batch.

The pipeline has four stages:
- Validation: rejects structurally broken readings into quarantine
- Enrichment: per-vehicle rolling temperature averages and speed deltas
- Rule detectors: overheat, voltage drop, harsh events, wasteful idle
- Isolation forest: statistical outliers the rules never anticipated

Each run is tracked in the result store (SQLite by default) so the
report commands can aggregate across batches.

Examples:
  # Analyze a batch and print the ranked anomaly table
  fleetsight analyze fleet-day1.parquet

  # Tighter overheat threshold via config file, JSON to a file
  fleetsight analyze fleet-day1.parquet --output json --output-file out.json

  # Disable run tracking
  fleetsight analyze fleet-day1.parquet --store-backend none`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.InputFile == "" {
			return errors.New("telemetry input file is required")
		}
		return core.ExecuteAnalyze(rootCtx, cfg, storeManager)
	},
}

// summarizeCmd runs the pipeline and prints the executive summary.
var summarizeCmd = &cobra.Command{
	Use:   "summarize [telemetry.parquet]",
	Short: "Produce the fleet executive summary for a telemetry batch",
	Long: `Run the detection pipeline and render a deterministic executive summary.

Every number in the summary is computed from the batch, never estimated:
fleet health scores, anomaly rates, idle waste and the riskiest vehicles
with recommended actions.

Examples:
  # Print the executive summary with the per-vehicle table
  fleetsight summarize fleet-day1.parquet

  # Summary as JSON for downstream reporting
  fleetsight summarize fleet-day1.parquet --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.InputFile == "" {
			return errors.New("telemetry input file is required")
		}
		return core.ExecuteSummarize(rootCtx, cfg, storeManager)
	},
}
