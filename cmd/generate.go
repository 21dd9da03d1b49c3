package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fleetsight/fleetsight/core"
)

// generateCmd produces a synthetic telemetry batch.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic telemetry batch as Parquet",
	Long: `Produce a deterministic synthetic telemetry batch for demos and testing.

Each vehicle follows a seeded random walk through plausible speed, RPM,
temperature and voltage ranges, with a small share of injected faults
(impossible speeds, overheating, voltage drops, wasteful idling) so the
detectors always have something to find. Equal seeds produce equal batches.

Requires: --output-file parameter

Examples:
  # Default batch: 5 vehicles x 200 records at 1s intervals
  fleetsight generate --output-file demo.parquet

  # A bigger fleet with a different seed
  fleetsight generate --vehicles 20 --records 1000 --gen-seed 7 --output-file fleet.parquet`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return configSetup(args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteGenerate(cfg)
	},
}
