package telstore

import (
	"encoding/json"
	"fmt"

	"github.com/fleetsight/fleetsight/schema"
)

// AnomalyRows flattens pipeline output into persistable rows, serializing
// the flag list to JSON.
func AnomalyRows(runID int64, records []schema.AnomalyRecord) ([]schema.AnomalyRowRecord, error) {
	rows := make([]schema.AnomalyRowRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		flagsJSON, err := json.Marshal(rec.Flags)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flags for %s: %w", rec.VehicleID, err)
		}
		rows = append(rows, schema.AnomalyRowRecord{
			RunID:            runID,
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
			FlagsJSON:        string(flagsJSON),
			IsAnomalous:      rec.IsAnomalous,
		})
	}
	return rows, nil
}

// QuarantineRows converts quarantined records into persistable rows. A zero
// timestamp becomes NULL so missing-timestamp rejects stay distinguishable.
func QuarantineRows(runID int64, records []schema.QuarantinedRecord) []schema.QuarantineRowRecord {
	rows := make([]schema.QuarantineRowRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		row := schema.QuarantineRowRecord{
			RunID:          runID,
			VehicleID:      rec.VehicleID,
			SpeedKmph:      rec.SpeedKmph,
			RPM:            rec.RPM,
			EngineTempC:    rec.EngineTempC,
			BatteryVoltage: rec.BatteryVoltage,
			FuelRate:       rec.FuelRate,
			Reason:         string(rec.Reason),
		}
		if !rec.Timestamp.IsZero() {
			ts := rec.Timestamp
			row.Timestamp = &ts
		}
		rows = append(rows, row)
	}
	return rows
}
