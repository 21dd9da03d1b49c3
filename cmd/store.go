package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/internal/telstore"
)

// storeCmd focused on result store management.
//
// Note: Store subcommands use minimal initialization instead of the full
// sharedSetup used by batch commands. This avoids input file handling for
// simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage run tracking and result exports",
	Long: `Manage the persisted results used for cross-run reporting.

When enabled, Fleetsight tracks every batch run, storing:
- Run metadata (timestamp, configuration, duration)
- Per-record anomaly rows with flags and scores
- Quarantined rows with their rejection reasons

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  fleetsight store status

  # Export for analysis in pandas/DuckDB
  fleetsight store export --output-file fleet-data.parquet`,
}

// storeStatusCmd shows result store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetResultStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		telstore.PrintStoreStatus(status)
	},
}

// storeClearCmd clears all persisted results.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted runs, anomaly rows and quarantine rows",
	Long: `Delete all stored runs and result history.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  fleetsight store export --output-file backup.parquet
  fleetsight store clear`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return configSetup(args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := telstore.ClearResults(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear result data", err)
		}
		fmt.Println("Result data cleared successfully.")
	},
}

// storeExportCmd exports result data to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted results to Parquet for BI tools and analytics",
	Long: `Export all stored result data to Parquet format for analytics tools.

Exports three datasets:
- Runs - metadata about each batch execution
- Anomaly rows - per-record detection output with flags and scores
- Quarantine rows - rejected readings with their reasons

Requires: --output-file parameter

Examples:
  # Export all data
  fleetsight store export --output-file fleet-data.parquet

  # Use with DuckDB for analysis
  fleetsight store export --output-file data.parquet
  duckdb -c "SELECT * FROM read_parquet('data.parquet.anomalies.parquet') LIMIT 10"`,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := telstore.ExecuteResultExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export result data", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the result store.
//
// This uses a setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the result store.

By default, migrates to the latest version. Use --target-version for
specific versions.

Examples:
  # Migrate to latest version (default)
  fleetsight store migrate

  # Rollback all migrations
  fleetsight store migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		return configSetup(args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := telstore.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
