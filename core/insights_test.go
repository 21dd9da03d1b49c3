package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/schema"
)

// insightBatch builds anomaly records for one vehicle with the requested
// behavior profile.
func insightBatch(vehicleID string, count, overspeed, idle int, voltage float64) []schema.AnomalyRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]schema.AnomalyRecord, 0, count)
	for i := range count {
		rec := validRecord()
		rec.VehicleID = vehicleID
		rec.Timestamp = base.Add(time.Duration(i) * time.Second)
		rec.BatteryVoltage = voltage
		switch {
		case i < overspeed:
			rec.SpeedKmph = 130
		case i < overspeed+idle:
			rec.SpeedKmph = 0
		}
		records = append(records, schema.AnomalyRecord{
			EnrichedRecord: enrichedFrom(rec),
		})
	}
	return records
}

func TestBuildVehicleInsights_HealthyVehicle(t *testing.T) {
	records := insightBatch("VH-0001", 20, 0, 0, 13.5)

	insights := BuildVehicleInsights(records, defaultThresholds())
	require.Len(t, insights, 1)

	ins := insights[0]
	assert.Equal(t, "VH-0001", ins.VehicleID)
	assert.Equal(t, 20, ins.RecordCount)
	assert.InDelta(t, 100.0, ins.HealthScore, 1e-9)
	assert.Empty(t, ins.RiskTags)
	assert.Empty(t, ins.Actions)
}

func TestBuildVehicleInsights_Deductions(t *testing.T) {
	tests := []struct {
		name      string
		overspeed int
		idle      int
		voltage   float64
		health    float64
		tags      []string
	}{
		{
			name:      "aggressive driving",
			overspeed: 6,
			voltage:   13.5,
			health:    80,
			tags:      []string{"aggressive_driving"},
		},
		{
			name:    "battery degradation",
			voltage: 12.5,
			health:  90,
			tags:    []string{"battery_degradation"},
		},
		{
			name:    "excessive idling",
			idle:    4, // 4 of 20 records = 20%
			voltage: 13.5,
			health:  85,
			tags:    []string{"excessive_idling"},
		},
		{
			name:      "all three",
			overspeed: 6,
			idle:      4,
			voltage:   12.5,
			health:    55,
			tags:      []string{"aggressive_driving", "battery_degradation", "excessive_idling"},
		},
		{
			name:      "exactly at overspeed limit does not deduct",
			overspeed: 5,
			voltage:   13.5,
			health:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := insightBatch("VH-0001", 20, tt.overspeed, tt.idle, tt.voltage)

			insights := BuildVehicleInsights(records, defaultThresholds())
			require.Len(t, insights, 1)
			assert.InDelta(t, tt.health, insights[0].HealthScore, 1e-9)
			assert.Equal(t, tt.tags, insights[0].RiskTags)
			assert.Len(t, insights[0].Actions, len(tt.tags))
		})
	}
}

func TestBuildVehicleInsights_SortedRiskiestFirst(t *testing.T) {
	var records []schema.AnomalyRecord
	records = append(records, insightBatch("VH-GOOD", 20, 0, 0, 13.5)...)
	records = append(records, insightBatch("VH-BAD", 20, 6, 4, 12.5)...)
	records = append(records, insightBatch("VH-FAIR", 20, 0, 0, 12.5)...)

	insights := BuildVehicleInsights(records, defaultThresholds())
	require.Len(t, insights, 3)
	assert.Equal(t, "VH-BAD", insights[0].VehicleID)
	assert.Equal(t, "VH-FAIR", insights[1].VehicleID)
	assert.Equal(t, "VH-GOOD", insights[2].VehicleID)
}

func TestBuildVehicleInsights_AnomalyCount(t *testing.T) {
	records := insightBatch("VH-0001", 10, 0, 0, 13.5)
	records[2].IsAnomalous = true
	records[7].IsAnomalous = true

	insights := BuildVehicleInsights(records, defaultThresholds())
	require.Len(t, insights, 1)
	assert.Equal(t, 2, insights[0].AnomalyCount)
}

func TestBuildFleetOverview(t *testing.T) {
	var records []schema.AnomalyRecord
	records = append(records, insightBatch("VH-0001", 10, 0, 0, 13.5)...)
	records = append(records, insightBatch("VH-0002", 10, 0, 0, 12.5)...)
	records[0].IsAnomalous = true
	records[0].Flags = []schema.AnomalyFlag{{Kind: schema.FlagWastefulIdle, Severity: 0.5}}

	result := &PipelineResult{
		Records: records,
		Quarantined: []schema.QuarantinedRecord{
			{TelemetryRecord: validRecord(), Reason: schema.ReasonNegativeSpeed},
		},
	}
	insights := BuildVehicleInsights(records, defaultThresholds())

	overview := BuildFleetOverview(result, insights)
	assert.Equal(t, 2, overview.VehicleCount)
	assert.Equal(t, 20, overview.RecordCount)
	assert.Equal(t, 1, overview.AnomalyCount)
	assert.Equal(t, 1, overview.QuarantineCount)
	assert.Equal(t, 1, overview.IdleEvents)
	// One vehicle at 100, one at 90 after the battery deduction.
	assert.InDelta(t, 95.0, overview.AvgHealthScore, 1e-9)
	assert.InDelta(t, 60.0, overview.AvgSpeed, 1e-9)
}

func TestBuildFleetOverview_EmptyBatch(t *testing.T) {
	overview := BuildFleetOverview(&PipelineResult{}, nil)
	assert.Zero(t, overview.VehicleCount)
	assert.Zero(t, overview.AvgSpeed)
	assert.Zero(t, overview.AvgHealthScore)
}
