// Package schema has configs, models and global variables for all parts of fleetsight.
package schema

import "time"

// TelemetryRecord is a single raw reading from a vehicle sensor unit.
// All physical quantities use fixed units: km/h, rev/min, Celsius, volts
// and liters per hour.
type TelemetryRecord struct {
	VehicleID      string    `json:"vehicle_id"`
	Timestamp      time.Time `json:"timestamp"`
	SpeedKmph      float64   `json:"speed_kmph"`
	RPM            float64   `json:"rpm"`
	EngineTempC    float64   `json:"engine_temp_c"`
	BatteryVoltage float64   `json:"battery_voltage"`
	FuelRate       float64   `json:"fuel_rate"`
}

// ValidationOutcome is the result of running a record through the schema gate.
// A record with Valid=false carries the first failing check as Reason and
// must not reach the trend engine or the detectors.
type ValidationOutcome struct {
	Valid  bool
	Reason QuarantineReason
}

// QuarantinedRecord is a rejected record kept in full for auditing.
type QuarantinedRecord struct {
	TelemetryRecord
	Reason QuarantineReason `json:"reason"`
}

// EnrichedRecord is a validated record augmented with per-vehicle rolling
// context. Pointer fields are nil on the first record of a vehicle, where
// no preceding sample exists.
type EnrichedRecord struct {
	TelemetryRecord

	// RollingAvgTemp is the mean engine temperature over the current record
	// plus up to N preceding records of the same vehicle.
	RollingAvgTemp float64 `json:"rolling_avg_temp"`

	// PrevSpeed is the speed of the immediately preceding record.
	PrevSpeed *float64 `json:"prev_speed,omitempty"`

	// SpeedDelta is SpeedKmph minus PrevSpeed.
	SpeedDelta *float64 `json:"speed_delta,omitempty"`

	// RollingAvgDelta is the change of RollingAvgTemp since the preceding
	// record. It drives the trend-based overheat early warning.
	RollingAvgDelta *float64 `json:"rolling_avg_delta,omitempty"`
}

// AnomalyFlag is a single finding raised against one record.
// Severity is normalized to [0, 1].
type AnomalyFlag struct {
	Kind     FlagKind   `json:"kind"`
	Source   FlagSource `json:"source"`
	Severity float64    `json:"severity"`
	Detail   string     `json:"detail,omitempty"`
}

// AnomalyRecord is the merged output of the rule detectors and the outlier
// model for one record. Flags from both sources are kept side by side and
// never deduplicated.
type AnomalyRecord struct {
	EnrichedRecord

	Flags []AnomalyFlag `json:"flags"`

	// OutlierScore is the isolation forest score in [0, 1]; higher means
	// more isolated.
	OutlierScore float64 `json:"outlier_score"`

	// CombinedSeverity is the sum of flag severities capped at 1.0. Adding
	// a flag never lowers it.
	CombinedSeverity float64 `json:"combined_severity"`

	IsAnomalous bool `json:"is_anomalous"`
}

// VehicleInsight is the per-vehicle risk profile derived from a batch.
type VehicleInsight struct {
	VehicleID      string   `json:"vehicle_id"`
	RecordCount    int      `json:"record_count"`
	AnomalyCount   int      `json:"anomaly_count"`
	IdlePct        float64  `json:"idle_pct"`
	AvgVoltage     float64  `json:"avg_voltage"`
	OverspeedCount int      `json:"overspeed_count"`
	MaxTemp        float64  `json:"max_temp"`
	HealthScore    float64  `json:"health_score"`
	RiskTags       []string `json:"risk_tags,omitempty"`
	Actions        []string `json:"actions,omitempty"`
}

// FleetOverview summarizes a whole batch across vehicles.
type FleetOverview struct {
	VehicleCount    int     `json:"vehicle_count"`
	RecordCount     int     `json:"record_count"`
	AnomalyCount    int     `json:"anomaly_count"`
	QuarantineCount int     `json:"quarantine_count"`
	IdleEvents      int     `json:"idle_events"`
	AvgSpeed        float64 `json:"avg_speed"`
	AvgHealthScore  float64 `json:"avg_health_score"`
}

// RunRecord is run metadata persisted by the result store.
type RunRecord struct {
	RunID           int64      `json:"run_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	RunDurationMs   *int32     `json:"run_duration_ms,omitempty"`
	TotalRecords    int32      `json:"total_records"`
	AnomalyCount    int32      `json:"anomaly_count"`
	QuarantineCount int32      `json:"quarantine_count"`
	ConfigParams    *string    `json:"config_params,omitempty"`
}

// AnomalyRowRecord is the flattened per-record row persisted by the result
// store. Flags are serialized to JSON so the row stays queryable with plain
// SQL while keeping the full flag payload.
type AnomalyRowRecord struct {
	RunID            int64
	VehicleID        string
	Timestamp        time.Time
	SpeedKmph        float64
	RPM              float64
	EngineTempC      float64
	BatteryVoltage   float64
	FuelRate         float64
	RollingAvgTemp   float64
	SpeedDelta       *float64
	OutlierScore     float64
	CombinedSeverity float64
	FlagsJSON        string
	IsAnomalous      bool
}

// QuarantineRowRecord is the persisted form of a quarantined record.
type QuarantineRowRecord struct {
	RunID          int64
	VehicleID      string
	Timestamp      *time.Time
	SpeedKmph      float64
	RPM            float64
	EngineTempC    float64
	BatteryVoltage float64
	FuelRate       float64
	Reason         string
}

// StoreStatus holds status information about the result store.
type StoreStatus struct {
	Backend       string
	Connected     bool
	TotalRuns     int64
	LastRunID     int64
	LastRunTime   time.Time
	OldestRunTime time.Time
	TotalRecords  int64
	TableSizes    map[string]int64
}

// VehicleHealthRow is one row of the per-vehicle health report.
type VehicleHealthRow struct {
	VehicleID    string
	Records      int64
	AvgVoltage   float64
	MaxTemp      float64
	AvgFuelRate  float64
	MaxSpeed     float64
	AnomalyCount int64
}

// HarshEventRow is one row of the harsh driving report, most recent first.
type HarshEventRow struct {
	VehicleID  string
	Timestamp  time.Time
	SpeedDelta float64
	Severity   float64
}

// IdleWasteRow is one row of the idle fuel waste report, grouped by
// vehicle and day.
type IdleWasteRow struct {
	VehicleID   string
	Day         string
	IdleEvents  int64
	AvgFuelRate float64
}

// FormatFlags renders flag kinds as a compact pipe-joined string for
// tables and CSV.
func FormatFlags(flags []AnomalyFlag) string {
	if len(flags) == 0 {
		return ""
	}
	out := string(flags[0].Kind)
	for _, f := range flags[1:] {
		out += "|" + string(f.Kind)
	}
	return out
}
