package telstore

import (
	"errors"
	"fmt"

	"github.com/fleetsight/fleetsight/internal/parquet"
)

// ExecuteResultExport exports all persisted runs, anomaly rows and
// quarantine rows to Parquet files next to the given output path.
func ExecuteResultExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	mgr := GetManager()
	if mgr == nil {
		return errors.New("result store is not initialized")
	}
	store := mgr.GetResultStore()

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total anomaly rows: %d\n", status.TableSizes[anomaliesTable])
	fmt.Printf("Total quarantine rows: %d\n", status.TableSizes[quarantineTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	anomalyRows, err := store.GetAllAnomalyRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve anomaly rows: %w", err)
	}

	quarantineRows, err := store.GetAllQuarantineRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve quarantine rows: %w", err)
	}

	// Write runs to Parquet
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRuns(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	// Write anomaly rows to Parquet
	anomaliesFile := outputFile + ".anomalies.parquet"
	if err := parquet.WriteAnomalyRows(parquet.ConvertAnomalyRowRecords(anomalyRows), anomaliesFile); err != nil {
		return fmt.Errorf("failed to write anomaly rows: %w", err)
	}
	fmt.Printf("Exported %d anomaly rows to: %s\n", len(anomalyRows), anomaliesFile)

	// Write quarantine rows to Parquet
	quarantineFile := outputFile + ".quarantine.parquet"
	if err := parquet.WriteQuarantineRows(parquet.ConvertQuarantineRowRecords(quarantineRows), quarantineFile); err != nil {
		return fmt.Errorf("failed to write quarantine rows: %w", err)
	}
	fmt.Printf("Exported %d quarantine rows to: %s\n", len(quarantineRows), quarantineFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
