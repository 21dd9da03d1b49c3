package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fleetsight/fleetsight/core"
)

// reportCmd groups the cross-run reporting commands.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query aggregated reports from the result store",
	Long: `Report over all persisted runs in the result store.

Reports aggregate every batch the store has tracked, not just the last
one, so they show how the fleet behaves over time.

Subcommands:
  fleet    - Fleet-wide overview (record counts, anomaly rate, idle waste)
  vehicles - Per-vehicle health aggregates, worst first
  harsh    - Harsh acceleration/braking events, most recent first
  idle     - Wasteful idle events grouped by vehicle and day

Examples:
  # Which vehicles accumulate the most anomalies?
  fleetsight report vehicles --limit 10

  # Idle fuel waste by day as CSV
  fleetsight report idle --output csv`,
}

// reportFleetCmd prints the fleet-wide overview.
var reportFleetCmd = &cobra.Command{
	Use:     "fleet",
	Short:   "Show the fleet-wide overview across all runs",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteFleetReport(cfg, storeManager)
	},
}

// reportVehiclesCmd prints the per-vehicle health report.
var reportVehiclesCmd = &cobra.Command{
	Use:     "vehicles",
	Short:   "Show per-vehicle health aggregates, highest anomaly count first",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteVehicleReport(cfg, storeManager)
	},
}

// reportHarshCmd prints the harsh driving report.
var reportHarshCmd = &cobra.Command{
	Use:     "harsh",
	Short:   "Show harsh acceleration and braking events, most recent first",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteHarshReport(cfg, storeManager)
	},
}

// reportIdleCmd prints the idle fuel waste report.
var reportIdleCmd = &cobra.Command{
	Use:     "idle",
	Short:   "Show wasteful idle events grouped by vehicle and day",
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteIdleReport(cfg, storeManager)
	},
}
