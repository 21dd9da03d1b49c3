// Package parquet provides the Parquet row formats for telemetry input
// batches and result store exports, using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fleetsight/fleetsight/schema"
	"github.com/parquet-go/parquet-go"
)

// TelemetryRow is the on-disk form of one raw telemetry reading.
type TelemetryRow struct {
	// VehicleID identifies the sensor unit that produced the reading
	VehicleID string `parquet:"vehicle_id,snappy"`

	// Timestamp is the reading time (stored as TIMESTAMP with nanosecond precision)
	Timestamp time.Time `parquet:"timestamp,snappy"`

	// SpeedKmph is the vehicle speed in km/h
	SpeedKmph float64 `parquet:"speed_kmph,snappy"`

	// RPM is the engine revolutions per minute
	RPM float64 `parquet:"rpm,snappy"`

	// EngineTempC is the engine temperature in Celsius
	EngineTempC float64 `parquet:"engine_temp_c,snappy"`

	// BatteryVoltage is the battery voltage in volts
	BatteryVoltage float64 `parquet:"battery_voltage,snappy"`

	// FuelRate is the fuel consumption in liters per hour
	FuelRate float64 `parquet:"fuel_rate,snappy"`
}

// ReadTelemetry loads a telemetry batch from a Parquet file, preserving
// file order.
func ReadTelemetry(path string) ([]schema.TelemetryRecord, error) {
	rows, err := parquet.ReadFile[TelemetryRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %q: %w", path, err)
	}

	records := make([]schema.TelemetryRecord, len(rows))
	for i, row := range rows {
		records[i] = schema.TelemetryRecord{
			VehicleID:      row.VehicleID,
			Timestamp:      row.Timestamp,
			SpeedKmph:      row.SpeedKmph,
			RPM:            row.RPM,
			EngineTempC:    row.EngineTempC,
			BatteryVoltage: row.BatteryVoltage,
			FuelRate:       row.FuelRate,
		}
	}
	return records, nil
}

// WriteTelemetry writes a telemetry batch to a Parquet file.
func WriteTelemetry(records []schema.TelemetryRecord, path string) error {
	rows := make([]TelemetryRow, len(records))
	for i, rec := range records {
		rows[i] = TelemetryRow{
			VehicleID:      rec.VehicleID,
			Timestamp:      rec.Timestamp,
			SpeedKmph:      rec.SpeedKmph,
			RPM:            rec.RPM,
			EngineTempC:    rec.EngineTempC,
			BatteryVoltage: rec.BatteryVoltage,
			FuelRate:       rec.FuelRate,
		}
	}
	return writeRows(rows, path)
}

// RunRow maps to the fleetsight_runs database table.
type RunRow struct {
	RunID           int64      `parquet:"run_id,snappy"`
	StartTime       time.Time  `parquet:"start_time,snappy"`
	EndTime         *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs   *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalRecords    int32      `parquet:"total_records,snappy"`
	AnomalyCount    int32      `parquet:"anomaly_count,snappy"`
	QuarantineCount int32      `parquet:"quarantine_count,snappy"`
	ConfigParams    *string    `parquet:"config_params,optional,snappy"`
}

// AnomalyRow maps to the fleetsight_anomalies database table. Flags keep
// their JSON encoding so no information is lost in export.
type AnomalyRow struct {
	RunID            int64     `parquet:"run_id,snappy"`
	VehicleID        string    `parquet:"vehicle_id,snappy"`
	Timestamp        time.Time `parquet:"ts,snappy"`
	SpeedKmph        float64   `parquet:"speed_kmph,snappy"`
	RPM              float64   `parquet:"rpm,snappy"`
	EngineTempC      float64   `parquet:"engine_temp_c,snappy"`
	BatteryVoltage   float64   `parquet:"battery_voltage,snappy"`
	FuelRate         float64   `parquet:"fuel_rate,snappy"`
	RollingAvgTemp   float64   `parquet:"rolling_avg_temp,snappy"`
	SpeedDelta       *float64  `parquet:"speed_delta,optional,snappy"`
	OutlierScore     float64   `parquet:"outlier_score,snappy"`
	CombinedSeverity float64   `parquet:"combined_severity,snappy"`
	Flags            string    `parquet:"flags,snappy"`
	IsAnomalous      bool      `parquet:"is_anomalous,snappy"`
}

// QuarantineRow maps to the fleetsight_quarantine database table.
type QuarantineRow struct {
	RunID          int64      `parquet:"run_id,snappy"`
	VehicleID      *string    `parquet:"vehicle_id,optional,snappy"`
	Timestamp      *time.Time `parquet:"ts,optional,snappy"`
	SpeedKmph      float64    `parquet:"speed_kmph,snappy"`
	RPM            float64    `parquet:"rpm,snappy"`
	EngineTempC    float64    `parquet:"engine_temp_c,snappy"`
	BatteryVoltage float64    `parquet:"battery_voltage,snappy"`
	FuelRate       float64    `parquet:"fuel_rate,snappy"`
	Reason         string     `parquet:"reason,snappy"`
}

// ConvertRunRecords converts schema.RunRecord to RunRow for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		result[i] = RunRow{
			RunID:           record.RunID,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			RunDurationMs:   record.RunDurationMs,
			TotalRecords:    record.TotalRecords,
			AnomalyCount:    record.AnomalyCount,
			QuarantineCount: record.QuarantineCount,
			ConfigParams:    record.ConfigParams,
		}
	}
	return result
}

// ConvertAnomalyRowRecords converts schema.AnomalyRowRecord to AnomalyRow
// for Parquet export.
func ConvertAnomalyRowRecords(records []schema.AnomalyRowRecord) []AnomalyRow {
	result := make([]AnomalyRow, len(records))
	for i, record := range records {
		result[i] = AnomalyRow{
			RunID:            record.RunID,
			VehicleID:        record.VehicleID,
			Timestamp:        record.Timestamp,
			SpeedKmph:        record.SpeedKmph,
			RPM:              record.RPM,
			EngineTempC:      record.EngineTempC,
			BatteryVoltage:   record.BatteryVoltage,
			FuelRate:         record.FuelRate,
			RollingAvgTemp:   record.RollingAvgTemp,
			SpeedDelta:       record.SpeedDelta,
			OutlierScore:     record.OutlierScore,
			CombinedSeverity: record.CombinedSeverity,
			Flags:            record.FlagsJSON,
			IsAnomalous:      record.IsAnomalous,
		}
	}
	return result
}

// ConvertQuarantineRowRecords converts schema.QuarantineRowRecord to
// QuarantineRow for Parquet export.
func ConvertQuarantineRowRecords(records []schema.QuarantineRowRecord) []QuarantineRow {
	result := make([]QuarantineRow, len(records))
	for i, record := range records {
		row := QuarantineRow{
			RunID:          record.RunID,
			Timestamp:      record.Timestamp,
			SpeedKmph:      record.SpeedKmph,
			RPM:            record.RPM,
			EngineTempC:    record.EngineTempC,
			BatteryVoltage: record.BatteryVoltage,
			FuelRate:       record.FuelRate,
			Reason:         record.Reason,
		}
		if record.VehicleID != "" {
			id := record.VehicleID
			row.VehicleID = &id
		}
		result[i] = row
	}
	return result
}

// ConvertAnomalyRecords flattens live pipeline output for Parquet output
// mode, where no run ID exists yet.
func ConvertAnomalyRecords(records []schema.AnomalyRecord) ([]AnomalyRow, error) {
	result := make([]AnomalyRow, len(records))
	for i := range records {
		rec := &records[i]
		flagsJSON, err := json.Marshal(rec.Flags)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flags for %s: %w", rec.VehicleID, err)
		}
		result[i] = AnomalyRow{
			VehicleID:        rec.VehicleID,
			Timestamp:        rec.Timestamp,
			SpeedKmph:        rec.SpeedKmph,
			RPM:              rec.RPM,
			EngineTempC:      rec.EngineTempC,
			BatteryVoltage:   rec.BatteryVoltage,
			FuelRate:         rec.FuelRate,
			RollingAvgTemp:   rec.RollingAvgTemp,
			SpeedDelta:       rec.SpeedDelta,
			OutlierScore:     rec.OutlierScore,
			CombinedSeverity: rec.CombinedSeverity,
			Flags:            string(flagsJSON),
			IsAnomalous:      rec.IsAnomalous,
		}
	}
	return result, nil
}

// WriteRuns writes a slice of RunRow structs to a Parquet file.
func WriteRuns(data []RunRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteAnomalyRows writes a slice of AnomalyRow structs to a Parquet file.
func WriteAnomalyRows(data []AnomalyRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteQuarantineRows writes a slice of QuarantineRow structs to a Parquet file.
func WriteQuarantineRows(data []QuarantineRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// writeRows writes any row slice to a Parquet file using struct schema
// inference from the row type's tags.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	// Close flushes the footer; its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
