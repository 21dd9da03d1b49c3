package contract

import (
	"time"

	"github.com/fleetsight/fleetsight/schema"
)

// ResultStore persists batch runs, anomaly rows and quarantined rows, and
// answers the reporting queries. Implementations must be safe for use from
// multiple goroutines.
type ResultStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data.
	EndRun(runID int64, endTime time.Time, totalRecords, anomalies, quarantined int) error

	// RecordAnomalies stores the flattened per-record rows for a run.
	RecordAnomalies(runID int64, rows []schema.AnomalyRowRecord) error

	// RecordQuarantined stores rejected rows with their reasons.
	RecordQuarantined(runID int64, rows []schema.QuarantineRowRecord) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// GetAllRuns retrieves all runs, oldest first.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllAnomalyRows retrieves all persisted per-record rows.
	GetAllAnomalyRows() ([]schema.AnomalyRowRecord, error)

	// GetAllQuarantineRows retrieves all persisted quarantine rows.
	GetAllQuarantineRows() ([]schema.QuarantineRowRecord, error)

	// FleetOverview answers the fleet-wide reporting query.
	FleetOverview() (schema.FleetOverview, error)

	// VehicleHealth answers the per-vehicle health query, worst first.
	VehicleHealth(limit int) ([]schema.VehicleHealthRow, error)

	// HarshEvents answers the harsh driving query, most recent first.
	HarshEvents(limit int) ([]schema.HarshEventRow, error)

	// IdleWaste answers the idle fuel waste query grouped by vehicle and day.
	IdleWaste(limit int) ([]schema.IdleWasteRow, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager provides access to the configured result store.
type StoreManager interface {
	GetResultStore() ResultStore
}
