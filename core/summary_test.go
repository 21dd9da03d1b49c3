package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fleetsight/fleetsight/schema"
)

func TestRenderExecutiveSummary_HealthyFleet(t *testing.T) {
	overview := schema.FleetOverview{
		VehicleCount:   3,
		RecordCount:    600,
		AnomalyCount:   12,
		AvgHealthScore: 100,
		AvgSpeed:       62.4,
	}
	insights := []schema.VehicleInsight{
		{VehicleID: "VH-0001", HealthScore: 100},
		{VehicleID: "VH-0002", HealthScore: 100},
		{VehicleID: "VH-0003", HealthScore: 100},
	}

	out := RenderExecutiveSummary(overview, insights)
	assert.Contains(t, out, "FLEET EXECUTIVE SUMMARY")
	assert.Contains(t, out, "Fleet of 3 vehicles, 600 telemetry records processed.")
	assert.Contains(t, out, "Anomalous records: 12 (2.0% of batch)")
	assert.Contains(t, out, "No vehicles require attention.")
}

func TestRenderExecutiveSummary_RiskyVehicles(t *testing.T) {
	overview := schema.FleetOverview{VehicleCount: 2, RecordCount: 100}
	insights := []schema.VehicleInsight{
		{
			VehicleID:   "VH-0002",
			HealthScore: 55,
			RiskTags:    []string{"aggressive_driving", "battery_degradation"},
			Actions: []string{
				"Review driver behavior and schedule coaching",
				"Inspect battery and charging system",
			},
		},
		{VehicleID: "VH-0001", HealthScore: 100},
	}

	out := RenderExecutiveSummary(overview, insights)
	assert.Contains(t, out, "Vehicles with active risk findings: 1 of 2.")
	assert.Contains(t, out, "VH-0002 (health 55): aggressive_driving, battery_degradation")
	assert.Contains(t, out, "action: Review driver behavior and schedule coaching")
	assert.NotContains(t, out, "No vehicles require attention.")
}

// Only the three riskiest vehicles are itemized, but the at-risk count still
// covers the whole fleet.
func TestRenderExecutiveSummary_TopThreeShown(t *testing.T) {
	overview := schema.FleetOverview{VehicleCount: 5, RecordCount: 100}
	insights := []schema.VehicleInsight{
		{VehicleID: "VH-0001", HealthScore: 55, RiskTags: []string{"excessive_idling"}},
		{VehicleID: "VH-0002", HealthScore: 65, RiskTags: []string{"excessive_idling"}},
		{VehicleID: "VH-0003", HealthScore: 75, RiskTags: []string{"excessive_idling"}},
		{VehicleID: "VH-0004", HealthScore: 85, RiskTags: []string{"excessive_idling"}},
		{VehicleID: "VH-0005", HealthScore: 100},
	}

	out := RenderExecutiveSummary(overview, insights)
	assert.Contains(t, out, "Vehicles with active risk findings: 4 of 5.")
	assert.Contains(t, out, "VH-0003")
	assert.NotContains(t, out, "VH-0004")
	assert.Equal(t, 3, strings.Count(out, "  - VH-"))
}

func TestRenderExecutiveSummary_ZeroRecords(t *testing.T) {
	out := RenderExecutiveSummary(schema.FleetOverview{}, nil)
	assert.Contains(t, out, "Anomalous records: 0 (0.0% of batch)")
}
