package core

import (
	"fmt"
	"math"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// RuleEvaluator is a single stateless detection rule. Evaluate returns nil
// when the rule does not fire. Rules never suppress each other; the
// aggregator keeps every flag that fires.
type RuleEvaluator interface {
	Name() string
	Evaluate(rec *schema.EnrichedRecord) *schema.AnomalyFlag
}

// clamp01 keeps rule severities inside [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DefaultRules returns the standard rule set wired to the configured
// thresholds, in evaluation order.
func DefaultRules(t contract.Thresholds) []RuleEvaluator {
	return []RuleEvaluator{
		&OverheatRule{TempLimit: t.OverheatTempC, SlopeLimit: t.OverheatSlope},
		&VoltageDropRule{MinVoltage: t.MinVoltage},
		&HarshEventRule{DeltaLimit: t.HarshDeltaKmph},
		&WastefulIdleRule{IdleRPM: t.IdleRPM},
	}
}

// OverheatRule fires on an absolute engine temperature breach, or as an
// early warning when the rolling average temperature is climbing faster
// than SlopeLimit per sample while still below the absolute limit.
type OverheatRule struct {
	TempLimit  float64
	SlopeLimit float64
}

// Name returns the rule identifier.
func (r *OverheatRule) Name() string { return string(schema.FlagOverheat) }

// Evaluate checks the absolute breach first; the trend warning only applies
// below the limit so a single record never yields two overheat flags.
func (r *OverheatRule) Evaluate(rec *schema.EnrichedRecord) *schema.AnomalyFlag {
	if rec.EngineTempC > r.TempLimit {
		margin := rec.EngineTempC - r.TempLimit
		return &schema.AnomalyFlag{
			Kind:     schema.FlagOverheat,
			Source:   schema.RuleSource,
			Severity: clamp01(0.6 + margin/25.0),
			Detail:   fmt.Sprintf("engine temp %.1fC exceeds limit %.1fC", rec.EngineTempC, r.TempLimit),
		}
	}

	// Trend-based early warning on the rolling average slope. Needs a
	// preceding record, so the first row of a vehicle can never fire it.
	if rec.RollingAvgDelta != nil && *rec.RollingAvgDelta > r.SlopeLimit {
		excess := *rec.RollingAvgDelta - r.SlopeLimit
		return &schema.AnomalyFlag{
			Kind:     schema.FlagOverheat,
			Source:   schema.RuleSource,
			Severity: clamp01(0.3 + excess/(4.0*r.SlopeLimit)*0.3),
			Detail:   fmt.Sprintf("rolling avg temp rising %.2fC/sample (limit %.2f)", *rec.RollingAvgDelta, r.SlopeLimit),
		}
	}

	return nil
}

// VoltageDropRule fires when battery voltage falls below the floor.
type VoltageDropRule struct {
	MinVoltage float64
}

// Name returns the rule identifier.
func (r *VoltageDropRule) Name() string { return string(schema.FlagVoltageDrop) }

// Evaluate flags any reading strictly below the voltage floor.
func (r *VoltageDropRule) Evaluate(rec *schema.EnrichedRecord) *schema.AnomalyFlag {
	if rec.BatteryVoltage >= r.MinVoltage {
		return nil
	}
	drop := r.MinVoltage - rec.BatteryVoltage
	return &schema.AnomalyFlag{
		Kind:     schema.FlagVoltageDrop,
		Source:   schema.RuleSource,
		Severity: clamp01(0.4 + drop/2.0),
		Detail:   fmt.Sprintf("battery voltage %.2fV below floor %.2fV", rec.BatteryVoltage, r.MinVoltage),
	}
}

// HarshEventRule fires on abrupt acceleration or braking, measured as the
// absolute speed change between consecutive records.
type HarshEventRule struct {
	DeltaLimit float64
}

// Name returns the rule identifier.
func (r *HarshEventRule) Name() string { return string(schema.FlagHarshEvent) }

// Evaluate only applies when a preceding record exists. A nil SpeedDelta is
// not treated as zero; the rule simply cannot fire on the first record.
func (r *HarshEventRule) Evaluate(rec *schema.EnrichedRecord) *schema.AnomalyFlag {
	if rec.SpeedDelta == nil {
		return nil
	}
	delta := math.Abs(*rec.SpeedDelta)
	if delta <= r.DeltaLimit {
		return nil
	}
	return &schema.AnomalyFlag{
		Kind:     schema.FlagHarshEvent,
		Source:   schema.RuleSource,
		Severity: clamp01(0.5 + (delta-r.DeltaLimit)/40.0),
		Detail:   fmt.Sprintf("speed changed %.1f km/h in one sample (limit %.1f)", *rec.SpeedDelta, r.DeltaLimit),
	}
}

// WastefulIdleRule fires when a standstill vehicle keeps the engine revving
// and burning fuel.
type WastefulIdleRule struct {
	IdleRPM float64
}

// Name returns the rule identifier.
func (r *WastefulIdleRule) Name() string { return string(schema.FlagWastefulIdle) }

// Evaluate requires all three conditions: zero speed, rpm above the idle
// threshold, and nonzero fuel consumption.
func (r *WastefulIdleRule) Evaluate(rec *schema.EnrichedRecord) *schema.AnomalyFlag {
	if rec.SpeedKmph != 0 || rec.RPM <= r.IdleRPM || rec.FuelRate <= 0 {
		return nil
	}
	return &schema.AnomalyFlag{
		Kind:     schema.FlagWastefulIdle,
		Source:   schema.RuleSource,
		Severity: clamp01(0.25 + (rec.RPM-r.IdleRPM)/4000.0),
		Detail:   fmt.Sprintf("idling at %.0f rpm burning %.1f L/h", rec.RPM, rec.FuelRate),
	}
}

// EvaluateRules runs every rule against a record and returns the flags that
// fired, in rule order.
func EvaluateRules(rules []RuleEvaluator, rec *schema.EnrichedRecord) []schema.AnomalyFlag {
	var flags []schema.AnomalyFlag
	for _, rule := range rules {
		if flag := rule.Evaluate(rec); flag != nil {
			flags = append(flags, *flag)
		}
	}
	return flags
}
