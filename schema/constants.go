package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for result storage.
	DatabaseBackend string

	// QuarantineReason identifies the first failed validation check.
	QuarantineReason string

	// FlagKind identifies an anomaly category.
	FlagKind string

	// FlagSource identifies which detector raised a flag.
	FlagSource string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All result store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Quarantine reasons, one per validation check. The validator applies the
// checks in this order and reports the first failure only.
const (
	ReasonMissingVehicleID  QuarantineReason = "missing_vehicle_id"
	ReasonMissingTimestamp  QuarantineReason = "missing_timestamp"
	ReasonNegativeSpeed     QuarantineReason = "negative_speed"
	ReasonImpossibleSpeed   QuarantineReason = "impossible_speed"
	ReasonNegativeRPM       QuarantineReason = "negative_rpm"
	ReasonExcessiveRPM      QuarantineReason = "excessive_rpm"
	ReasonTempOutOfRange    QuarantineReason = "temp_out_of_range"
	ReasonVoltageOutOfRange QuarantineReason = "voltage_out_of_range"
	ReasonNegativeFuelRate  QuarantineReason = "negative_fuel_rate"
)

// All anomaly flag kinds.
const (
	FlagOverheat           FlagKind = "overheat"
	FlagVoltageDrop        FlagKind = "voltage_drop"
	FlagHarshEvent         FlagKind = "harsh_event"
	FlagWastefulIdle       FlagKind = "wasteful_idle"
	FlagStatisticalOutlier FlagKind = "statistical_outlier"
)

// All flag sources.
const (
	RuleSource  FlagSource = "rule"
	ModelSource FlagSource = "model"
)

// FeatureNames is the fixed feature vector layout fed to the outlier model.
// Order matters: fitted models are only valid for vectors built in this order.
var FeatureNames = []string{
	"speed_kmph",
	"rpm",
	"engine_temp_c",
	"battery_voltage",
	"fuel_rate",
	"rolling_avg_temp",
}

// FeatureCount is the dimensionality of the model feature vector.
var FeatureCount = len(FeatureNames)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid result store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
