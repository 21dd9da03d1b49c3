package core

import (
	"sort"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// Health score deductions. The score starts at 100 and loses a fixed
// amount per risk category, floored at zero.
const (
	safetyDeduction  = 20.0
	batteryDeduction = 10.0
	fuelDeduction    = 15.0

	healthVoltageFloor  = 12.8 // average voltage below this flags battery risk
	healthIdlePctLimit  = 15.0 // idle time share above this flags fuel waste
	healthOverspeedLimit = 5   // overspeed events above this flag safety risk
)

// BuildVehicleInsights derives the per-vehicle risk profiles from a batch,
// sorted by health score ascending so the riskiest vehicles come first.
func BuildVehicleInsights(records []schema.AnomalyRecord, t contract.Thresholds) []schema.VehicleInsight {
	type acc struct {
		count      int
		anomalies  int
		idle       int
		overspeed  int
		voltageSum float64
		maxTemp    float64
	}

	index := make(map[string]int)
	var order []string
	accs := make(map[string]*acc)

	for i := range records {
		rec := &records[i]
		a, ok := accs[rec.VehicleID]
		if !ok {
			a = &acc{maxTemp: rec.EngineTempC}
			accs[rec.VehicleID] = a
			index[rec.VehicleID] = len(order)
			order = append(order, rec.VehicleID)
		}
		a.count++
		a.voltageSum += rec.BatteryVoltage
		if rec.IsAnomalous {
			a.anomalies++
		}
		if rec.SpeedKmph == 0 {
			a.idle++
		}
		if rec.SpeedKmph > t.OverspeedKmph {
			a.overspeed++
		}
		if rec.EngineTempC > a.maxTemp {
			a.maxTemp = rec.EngineTempC
		}
	}

	insights := make([]schema.VehicleInsight, 0, len(order))
	for _, id := range order {
		a := accs[id]
		idlePct := float64(a.idle) / float64(a.count) * 100.0
		avgVoltage := a.voltageSum / float64(a.count)

		ins := schema.VehicleInsight{
			VehicleID:      id,
			RecordCount:    a.count,
			AnomalyCount:   a.anomalies,
			IdlePct:        idlePct,
			AvgVoltage:     avgVoltage,
			OverspeedCount: a.overspeed,
			MaxTemp:        a.maxTemp,
		}

		score := 100.0
		if a.overspeed > healthOverspeedLimit {
			score -= safetyDeduction
			ins.RiskTags = append(ins.RiskTags, "aggressive_driving")
			ins.Actions = append(ins.Actions, "Review driver behavior and schedule coaching")
		}
		if avgVoltage < healthVoltageFloor {
			score -= batteryDeduction
			ins.RiskTags = append(ins.RiskTags, "battery_degradation")
			ins.Actions = append(ins.Actions, "Inspect battery and charging system")
		}
		if idlePct > healthIdlePctLimit {
			score -= fuelDeduction
			ins.RiskTags = append(ins.RiskTags, "excessive_idling")
			ins.Actions = append(ins.Actions, "Reduce idle time to cut fuel waste")
		}
		if score < 0 {
			score = 0
		}
		ins.HealthScore = score

		insights = append(insights, ins)
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].HealthScore < insights[j].HealthScore
	})
	return insights
}

// BuildFleetOverview summarizes one batch across vehicles.
func BuildFleetOverview(result *PipelineResult, insights []schema.VehicleInsight) schema.FleetOverview {
	overview := schema.FleetOverview{
		VehicleCount:    len(insights),
		RecordCount:     len(result.Records),
		QuarantineCount: len(result.Quarantined),
	}

	speedSum := 0.0
	for i := range result.Records {
		rec := &result.Records[i]
		speedSum += rec.SpeedKmph
		if rec.IsAnomalous {
			overview.AnomalyCount++
		}
		for _, f := range rec.Flags {
			if f.Kind == schema.FlagWastefulIdle {
				overview.IdleEvents++
				break
			}
		}
	}
	if overview.RecordCount > 0 {
		overview.AvgSpeed = speedSum / float64(overview.RecordCount)
	}

	healthSum := 0.0
	for _, ins := range insights {
		healthSum += ins.HealthScore
	}
	if len(insights) > 0 {
		overview.AvgHealthScore = healthSum / float64(len(insights))
	}

	return overview
}
