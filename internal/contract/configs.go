package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fleetsight/fleetsight/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 1

	DefaultWindowSize    = 10
	DefaultOverheatTemp  = 110.0
	DefaultOverheatSlope = 1.0
	DefaultMinVoltage    = 12.0
	DefaultHarshDelta    = 20.0
	DefaultIdleRPM       = 500.0
	DefaultOverspeedKmph = 120.0

	DefaultContamination = 0.03
	DefaultTrees         = 100
	DefaultSampleSize    = 256
	DefaultSeed          = 42
	DefaultMinFitSamples = 32
)

// Default physical plausibility bounds. Anything outside these is not a
// suspicious reading, it is a broken one, and goes to quarantine.
const (
	DefaultMaxSpeedKmph = 250.0
	DefaultMaxRPM       = 9000.0
	DefaultMinTempC     = -40.0
	DefaultMaxTempC     = 150.0
	DefaultMinVoltageV  = 9.0
	DefaultMaxVoltageV  = 16.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Bounds holds the physical plausibility window used by the schema gate.
type Bounds struct {
	MaxSpeedKmph float64
	MaxRPM       float64
	MinTempC     float64
	MaxTempC     float64
	MinVoltageV  float64
	MaxVoltageV  float64
}

// Thresholds holds the rule detector trigger levels.
type Thresholds struct {
	OverheatTempC  float64 // absolute engine temperature trigger
	OverheatSlope  float64 // rolling-average rise per sample that triggers the early warning
	MinVoltage     float64 // battery voltage floor
	HarshDeltaKmph float64 // absolute speed change per sample
	IdleRPM        float64 // rpm above which a standstill burns fuel
	OverspeedKmph  float64 // speed counted as an overspeed event in insights
}

// Model holds the outlier model parameters.
type Model struct {
	Contamination float64
	Trees         int
	SampleSize    int
	Seed          int64
	MinFitSamples int
}

// BoundsRawInput holds optional bound overrides from the YAML config file.
type BoundsRawInput struct {
	MaxSpeed   *float64 `mapstructure:"max_speed"`
	MaxRPM     *float64 `mapstructure:"max_rpm"`
	MinTemp    *float64 `mapstructure:"min_temp"`
	MaxTemp    *float64 `mapstructure:"max_temp"`
	MinVoltage *float64 `mapstructure:"min_voltage"`
	MaxVoltage *float64 `mapstructure:"max_voltage"`
}

// ThresholdsRawInput holds optional rule threshold overrides from the YAML
// config file.
type ThresholdsRawInput struct {
	OverheatTemp  *float64 `mapstructure:"overheat_temp"`
	OverheatSlope *float64 `mapstructure:"overheat_slope"`
	MinVoltage    *float64 `mapstructure:"min_voltage"`
	HarshDelta    *float64 `mapstructure:"harsh_delta"`
	IdleRPM       *float64 `mapstructure:"idle_rpm"`
	Overspeed     *float64 `mapstructure:"overspeed"`
}

// ModelRawInput holds optional model parameter overrides from the YAML
// config file.
type ModelRawInput struct {
	Contamination *float64 `mapstructure:"contamination"`
	Trees         *int     `mapstructure:"trees"`
	SampleSize    *int     `mapstructure:"sample_size"`
	Seed          *int64   `mapstructure:"seed"`
	MinFitSamples *int     `mapstructure:"min_fit_samples"`
}

// Config holds the runtime configuration for a batch run.
// This struct remains the "final, validated" config.
type Config struct {
	InputFile   string
	ResultLimit int
	Workers     int
	WindowSize  int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	Bounds     Bounds
	Thresholds Thresholds
	Model      Model

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	// Generator parameters for the synthetic data command.
	GenVehicles int
	GenRecords  int
	GenInterval time.Duration
	GenSeed     int64

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputFileStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile     string `mapstructure:"output-file"`
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Window         int    `mapstructure:"window"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	Width          int    `mapstructure:"width"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Fields from generateCmd.Flags() ---
	GenVehicles int    `mapstructure:"vehicles"`
	GenRecords  int    `mapstructure:"records"`
	GenInterval string `mapstructure:"interval"`
	GenSeed     int64  `mapstructure:"gen-seed"`

	// --- Domain parameters from config file ---
	Bounds     BoundsRawInput     `mapstructure:"bounds"`
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
	Model      ModelRawInput      `mapstructure:"model"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw
// inputs and updates the final Config struct. Nothing touches a record until
// this passes.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processBounds(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processModel(cfg, input); err != nil {
		return err
	}
	if err := processGenerator(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection
// strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-domain fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputFile = input.InputFileStr
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Window Validation ---
	if input.Window < 1 {
		return fmt.Errorf("window must be at least 1 (received %d)", input.Window)
	}
	cfg.WindowSize = input.Window

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 3 {
		return fmt.Errorf("precision must be between 1 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	// --- 5. Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	return nil
}

// processBounds merges default bounds with config file overrides and checks
// that the windows are non-empty.
func processBounds(cfg *Config, input *ConfigRawInput) error {
	b := Bounds{
		MaxSpeedKmph: DefaultMaxSpeedKmph,
		MaxRPM:       DefaultMaxRPM,
		MinTempC:     DefaultMinTempC,
		MaxTempC:     DefaultMaxTempC,
		MinVoltageV:  DefaultMinVoltageV,
		MaxVoltageV:  DefaultMaxVoltageV,
	}

	if input.Bounds.MaxSpeed != nil {
		b.MaxSpeedKmph = *input.Bounds.MaxSpeed
	}
	if input.Bounds.MaxRPM != nil {
		b.MaxRPM = *input.Bounds.MaxRPM
	}
	if input.Bounds.MinTemp != nil {
		b.MinTempC = *input.Bounds.MinTemp
	}
	if input.Bounds.MaxTemp != nil {
		b.MaxTempC = *input.Bounds.MaxTemp
	}
	if input.Bounds.MinVoltage != nil {
		b.MinVoltageV = *input.Bounds.MinVoltage
	}
	if input.Bounds.MaxVoltage != nil {
		b.MaxVoltageV = *input.Bounds.MaxVoltage
	}

	if b.MaxSpeedKmph <= 0 {
		return fmt.Errorf("bounds.max_speed must be positive (received %.2f)", b.MaxSpeedKmph)
	}
	if b.MaxRPM <= 0 {
		return fmt.Errorf("bounds.max_rpm must be positive (received %.2f)", b.MaxRPM)
	}
	if b.MinTempC >= b.MaxTempC {
		return fmt.Errorf("bounds.min_temp (%.2f) must be below bounds.max_temp (%.2f)", b.MinTempC, b.MaxTempC)
	}
	if b.MinVoltageV >= b.MaxVoltageV {
		return fmt.Errorf("bounds.min_voltage (%.2f) must be below bounds.max_voltage (%.2f)", b.MinVoltageV, b.MaxVoltageV)
	}

	cfg.Bounds = b
	return nil
}

// processThresholds merges default rule thresholds with config file overrides.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	t := Thresholds{
		OverheatTempC:  DefaultOverheatTemp,
		OverheatSlope:  DefaultOverheatSlope,
		MinVoltage:     DefaultMinVoltage,
		HarshDeltaKmph: DefaultHarshDelta,
		IdleRPM:        DefaultIdleRPM,
		OverspeedKmph:  DefaultOverspeedKmph,
	}

	if input.Thresholds.OverheatTemp != nil {
		t.OverheatTempC = *input.Thresholds.OverheatTemp
	}
	if input.Thresholds.OverheatSlope != nil {
		t.OverheatSlope = *input.Thresholds.OverheatSlope
	}
	if input.Thresholds.MinVoltage != nil {
		t.MinVoltage = *input.Thresholds.MinVoltage
	}
	if input.Thresholds.HarshDelta != nil {
		t.HarshDeltaKmph = *input.Thresholds.HarshDelta
	}
	if input.Thresholds.IdleRPM != nil {
		t.IdleRPM = *input.Thresholds.IdleRPM
	}
	if input.Thresholds.Overspeed != nil {
		t.OverspeedKmph = *input.Thresholds.Overspeed
	}

	if t.OverheatSlope <= 0 {
		return fmt.Errorf("thresholds.overheat_slope must be positive (received %.2f)", t.OverheatSlope)
	}
	if t.HarshDeltaKmph <= 0 {
		return fmt.Errorf("thresholds.harsh_delta must be positive (received %.2f)", t.HarshDeltaKmph)
	}
	if t.IdleRPM < 0 {
		return fmt.Errorf("thresholds.idle_rpm cannot be negative (received %.2f)", t.IdleRPM)
	}

	cfg.Thresholds = t
	return nil
}

// processModel merges default model parameters with config file overrides.
func processModel(cfg *Config, input *ConfigRawInput) error {
	m := Model{
		Contamination: DefaultContamination,
		Trees:         DefaultTrees,
		SampleSize:    DefaultSampleSize,
		Seed:          DefaultSeed,
		MinFitSamples: DefaultMinFitSamples,
	}

	if input.Model.Contamination != nil {
		m.Contamination = *input.Model.Contamination
	}
	if input.Model.Trees != nil {
		m.Trees = *input.Model.Trees
	}
	if input.Model.SampleSize != nil {
		m.SampleSize = *input.Model.SampleSize
	}
	if input.Model.Seed != nil {
		m.Seed = *input.Model.Seed
	}
	if input.Model.MinFitSamples != nil {
		m.MinFitSamples = *input.Model.MinFitSamples
	}

	if m.Contamination <= 0 || m.Contamination >= 0.5 {
		return fmt.Errorf("model.contamination must be in (0, 0.5) (received %.4f)", m.Contamination)
	}
	if m.Trees < 1 {
		return fmt.Errorf("model.trees must be at least 1 (received %d)", m.Trees)
	}
	if m.SampleSize < 2 {
		return fmt.Errorf("model.sample_size must be at least 2 (received %d)", m.SampleSize)
	}
	if m.MinFitSamples < 2 {
		return fmt.Errorf("model.min_fit_samples must be at least 2 (received %d)", m.MinFitSamples)
	}

	cfg.Model = m
	return nil
}

// processGenerator validates the synthetic data parameters.
func processGenerator(cfg *Config, input *ConfigRawInput) error {
	cfg.GenVehicles = input.GenVehicles
	cfg.GenRecords = input.GenRecords
	cfg.GenSeed = input.GenSeed

	if cfg.GenVehicles < 0 {
		return fmt.Errorf("vehicles cannot be negative (received %d)", cfg.GenVehicles)
	}
	if cfg.GenRecords < 0 {
		return fmt.Errorf("records cannot be negative (received %d)", cfg.GenRecords)
	}

	if input.GenInterval != "" {
		interval, err := time.ParseDuration(input.GenInterval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		if interval <= 0 {
			return fmt.Errorf("interval must be positive (received %s)", interval)
		}
		cfg.GenInterval = interval
	}

	return nil
}
