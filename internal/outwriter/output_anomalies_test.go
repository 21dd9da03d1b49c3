package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

func writerConfig(outputFile string, mode schema.OutputMode) *contract.Config {
	return &contract.Config{
		ResultLimit:  25,
		Workers:      4,
		Precision:    1,
		Output:       mode,
		OutputFile:   outputFile,
		Width:        120,
		StoreBackend: schema.SQLiteBackend,
	}
}

func anomalyBatch() []schema.AnomalyRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mk := func(id string, sev float64, anomalous bool, kinds ...schema.FlagKind) schema.AnomalyRecord {
		var flags []schema.AnomalyFlag
		for _, k := range kinds {
			flags = append(flags, schema.AnomalyFlag{Kind: k, Source: schema.RuleSource, Severity: sev})
		}
		return schema.AnomalyRecord{
			EnrichedRecord: schema.EnrichedRecord{
				TelemetryRecord: schema.TelemetryRecord{
					VehicleID: id,
					Timestamp: base,
					SpeedKmph: 60,
				},
			},
			Flags:            flags,
			OutlierScore:     sev / 2,
			CombinedSeverity: sev,
			IsAnomalous:      anomalous,
		}
	}

	return []schema.AnomalyRecord{
		mk("VH-0001", 0, false),
		mk("VH-0002", 0.4, true, schema.FlagVoltageDrop),
		mk("VH-0003", 0.9, true, schema.FlagOverheat),
		mk("VH-0004", 0.6, true, schema.FlagHarshEvent),
	}
}

func TestRankAnomalies(t *testing.T) {
	ranked := rankAnomalies(anomalyBatch(), 25)
	require.Len(t, ranked, 3)
	assert.Equal(t, "VH-0003", ranked[0].VehicleID)
	assert.Equal(t, "VH-0004", ranked[1].VehicleID)
	assert.Equal(t, "VH-0002", ranked[2].VehicleID)
}

func TestRankAnomalies_LimitApplied(t *testing.T) {
	ranked := rankAnomalies(anomalyBatch(), 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "VH-0003", ranked[0].VehicleID)
}

func TestRankAnomalies_StableOnTies(t *testing.T) {
	records := anomalyBatch()
	records[1].CombinedSeverity = 0.6
	records[3].CombinedSeverity = 0.6

	ranked := rankAnomalies(records, 25)
	require.Len(t, ranked, 3)
	// Equal severities keep input order.
	assert.Equal(t, "VH-0002", ranked[1].VehicleID)
	assert.Equal(t, "VH-0004", ranked[2].VehicleID)
}

func TestWriteAnomalyResults_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := writerConfig(path, schema.CSVOut)

	err := WriteAnomalyResults(anomalyBatch(), nil, schema.FleetOverview{}, cfg, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 anomalous

	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, "vehicle_id", rows[0][1])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "VH-0003", rows[1][1])
	assert.Equal(t, "Critical", rows[1][11])
	assert.Equal(t, "overheat", rows[1][12])
}

func TestWriteAnomalyResults_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	cfg := writerConfig(path, schema.JSONOut)

	quarantined := []schema.QuarantinedRecord{
		{
			TelemetryRecord: schema.TelemetryRecord{VehicleID: "VH-0009"},
			Reason:          schema.ReasonMissingTimestamp,
		},
	}
	overview := schema.FleetOverview{VehicleCount: 4, RecordCount: 4, AnomalyCount: 3, QuarantineCount: 1}

	err := WriteAnomalyResults(anomalyBatch(), quarantined, overview, cfg, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var payload struct {
		Overview  schema.FleetOverview `json:"overview"`
		Anomalies []struct {
			Rank      int    `json:"rank"`
			Label     string `json:"label"`
			VehicleID string `json:"vehicle_id"`
		} `json:"anomalies"`
		Quarantined []schema.QuarantinedRecord `json:"quarantined"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, 4, payload.Overview.VehicleCount)
	require.Len(t, payload.Anomalies, 3)
	assert.Equal(t, 1, payload.Anomalies[0].Rank)
	assert.Equal(t, "VH-0003", payload.Anomalies[0].VehicleID)
	assert.Equal(t, "Critical", payload.Anomalies[0].Label)
	require.Len(t, payload.Quarantined, 1)
	assert.Equal(t, schema.ReasonMissingTimestamp, payload.Quarantined[0].Reason)
}

func TestWriteAnomalyResults_Table(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	cfg := writerConfig(path, schema.TextOut)

	quarantined := []schema.QuarantinedRecord{
		{TelemetryRecord: schema.TelemetryRecord{VehicleID: "VH-0009"}, Reason: schema.ReasonNegativeSpeed},
		{TelemetryRecord: schema.TelemetryRecord{VehicleID: "VH-0010"}, Reason: schema.ReasonNegativeSpeed},
		{TelemetryRecord: schema.TelemetryRecord{}, Reason: schema.ReasonMissingVehicleID},
	}
	overview := schema.FleetOverview{RecordCount: 4, AnomalyCount: 3}

	err := WriteAnomalyResults(anomalyBatch(), quarantined, overview, cfg, 1500*time.Millisecond)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "VH-0003")
	assert.Contains(t, out, "Showing top 3 of 3 anomalous records (4 total, 3 quarantined)")
	assert.Contains(t, out, "Quarantine breakdown:")
	assert.Contains(t, out, "negative_speed: 2")
	assert.Contains(t, out, "missing_vehicle_id: 1")
	assert.Contains(t, out, "Batch completed in 1.5s with 4 workers. Store backend: sqlite")
}

func TestWriteAnomalyResults_ParquetRequiresOutputFile(t *testing.T) {
	cfg := writerConfig("", schema.ParquetOut)

	err := WriteAnomalyResults(anomalyBatch(), nil, schema.FleetOverview{}, cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file is required")
}

func TestWriteAnomalyResults_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	cfg := writerConfig(path, schema.ParquetOut)

	err := WriteAnomalyResults(anomalyBatch(), nil, schema.FleetOverview{}, cfg, time.Second)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
