// Package core has core logic for validation, trend enrichment, detection
// and aggregation of vehicle telemetry.
package core

import (
	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// Validator is the quarantine gate in front of the pipeline. It applies a
// fixed, ordered list of plausibility checks and reports the first failure.
// Check order is part of the contract: two runs over the same input always
// quarantine a record for the same reason.
type Validator struct {
	bounds contract.Bounds
}

// NewValidator creates a Validator with the given physical bounds.
func NewValidator(bounds contract.Bounds) *Validator {
	return &Validator{bounds: bounds}
}

// Validate runs the ordered checks against a single record. It never
// mutates the record and never repairs values; a failing record is
// quarantined as-is.
func (v *Validator) Validate(rec *schema.TelemetryRecord) schema.ValidationOutcome {
	checks := []struct {
		failed bool
		reason schema.QuarantineReason
	}{
		{rec.VehicleID == "", schema.ReasonMissingVehicleID},
		{rec.Timestamp.IsZero(), schema.ReasonMissingTimestamp},
		{rec.SpeedKmph < 0, schema.ReasonNegativeSpeed},
		{rec.SpeedKmph > v.bounds.MaxSpeedKmph, schema.ReasonImpossibleSpeed},
		{rec.RPM < 0, schema.ReasonNegativeRPM},
		{rec.RPM > v.bounds.MaxRPM, schema.ReasonExcessiveRPM},
		{rec.EngineTempC < v.bounds.MinTempC || rec.EngineTempC > v.bounds.MaxTempC, schema.ReasonTempOutOfRange},
		{rec.BatteryVoltage < v.bounds.MinVoltageV || rec.BatteryVoltage > v.bounds.MaxVoltageV, schema.ReasonVoltageOutOfRange},
		{rec.FuelRate < 0, schema.ReasonNegativeFuelRate},
	}

	for _, c := range checks {
		if c.failed {
			return schema.ValidationOutcome{Valid: false, Reason: c.reason}
		}
	}
	return schema.ValidationOutcome{Valid: true}
}
