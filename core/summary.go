package core

import (
	"fmt"
	"strings"

	"github.com/fleetsight/fleetsight/schema"
)

// RenderExecutiveSummary produces a deterministic plain-text fleet report
// from real batch metrics. Every number in the output is computed, never
// estimated, so the summary can feed downstream reporting verbatim.
func RenderExecutiveSummary(overview schema.FleetOverview, insights []schema.VehicleInsight) string {
	var b strings.Builder

	b.WriteString("FLEET EXECUTIVE SUMMARY\n")
	b.WriteString("=======================\n\n")

	fmt.Fprintf(&b, "Fleet of %d vehicles, %d telemetry records processed.\n", overview.VehicleCount, overview.RecordCount)
	fmt.Fprintf(&b, "Average fleet health score: %.1f/100. Average speed: %.1f km/h.\n\n", overview.AvgHealthScore, overview.AvgSpeed)

	fmt.Fprintf(&b, "Anomalous records: %d (%.1f%% of batch). Quarantined records: %d.\n",
		overview.AnomalyCount, pct(overview.AnomalyCount, overview.RecordCount), overview.QuarantineCount)
	fmt.Fprintf(&b, "Wasteful idle events: %d.\n\n", overview.IdleEvents)

	atRisk := 0
	for _, ins := range insights {
		if len(ins.RiskTags) > 0 {
			atRisk++
		}
	}
	fmt.Fprintf(&b, "Vehicles with active risk findings: %d of %d.\n", atRisk, len(insights))

	// Insights arrive sorted riskiest-first; surface the top three.
	shown := 0
	for _, ins := range insights {
		if len(ins.RiskTags) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  - %s (health %.0f): %s\n", ins.VehicleID, ins.HealthScore, strings.Join(ins.RiskTags, ", "))
		for _, action := range ins.Actions {
			fmt.Fprintf(&b, "      action: %s\n", action)
		}
		shown++
		if shown == 3 {
			break
		}
	}
	if atRisk == 0 {
		b.WriteString("  No vehicles require attention.\n")
	}

	return b.String()
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100.0
}
