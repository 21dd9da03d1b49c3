// Package ingest produces synthetic telemetry batches for demos and tests.
package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/fleetsight/fleetsight/schema"
)

// GeneratorOptions controls the shape of a synthetic batch.
type GeneratorOptions struct {
	// Vehicles is the number of distinct vehicle IDs.
	Vehicles int

	// Records is the number of readings per vehicle.
	Records int

	// Interval is the time between consecutive readings of one vehicle.
	Interval time.Duration

	// Seed drives the random source; equal seeds produce equal batches.
	Seed int64
}

// Generator produces deterministic random-walk telemetry with a small
// share of injected anomalies.
type Generator struct {
	opts GeneratorOptions
	rng  *rand.Rand
}

// NewGenerator creates a generator, applying defaults for zero options.
func NewGenerator(opts GeneratorOptions) *Generator {
	if opts.Vehicles <= 0 {
		opts.Vehicles = 5
	}
	if opts.Records <= 0 {
		opts.Records = 200
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Generator{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
}

// vehicleState is the walk state for one simulated vehicle.
type vehicleState struct {
	speed   float64
	rpm     float64
	temp    float64
	voltage float64
}

// Generate produces the batch in vehicle-major order, each vehicle's
// readings spaced by the configured interval.
func (g *Generator) Generate() []schema.TelemetryRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]schema.TelemetryRecord, 0, g.opts.Vehicles*g.opts.Records)

	for v := range g.opts.Vehicles {
		vehicleID := fmt.Sprintf("VH-%04d", v+1)
		state := vehicleState{
			speed:   40 + g.rng.Float64()*40,
			rpm:     1500 + g.rng.Float64()*1000,
			temp:    85 + g.rng.Float64()*10,
			voltage: 13.5 + g.rng.Float64()*0.8,
		}

		for i := range g.opts.Records {
			g.step(&state)
			rec := schema.TelemetryRecord{
				VehicleID:      vehicleID,
				Timestamp:      base.Add(time.Duration(i) * g.opts.Interval),
				SpeedKmph:      state.speed,
				RPM:            state.rpm,
				EngineTempC:    state.temp,
				BatteryVoltage: state.voltage,
				FuelRate:       g.fuelRate(&state),
			}
			g.inject(&rec)
			records = append(records, rec)
		}
	}
	return records
}

// step advances the random walk, keeping values inside plausible ranges.
func (g *Generator) step(s *vehicleState) {
	s.speed = clampRange(s.speed+g.rng.NormFloat64()*4, 0, 160)
	s.rpm = clampRange(s.rpm+g.rng.NormFloat64()*150, 600, 5000)
	s.temp = clampRange(s.temp+g.rng.NormFloat64()*0.6, 70, 108)
	s.voltage = clampRange(s.voltage+g.rng.NormFloat64()*0.05, 12.2, 14.8)
}

// fuelRate derives consumption from the walk state with a little noise.
func (g *Generator) fuelRate(s *vehicleState) float64 {
	base := 0.8 + s.rpm/1000.0 + s.speed/40.0
	return clampRange(base+g.rng.NormFloat64()*0.3, 0.3, 30)
}

// inject overwrites a small share of readings with known fault signatures
// so downstream detectors always have something to find.
func (g *Generator) inject(rec *schema.TelemetryRecord) {
	roll := g.rng.Float64()
	switch {
	case roll < 0.01: // impossible speed, caught by validation
		rec.SpeedKmph = 260 + g.rng.Float64()*40
	case roll < 0.03: // overheating engine
		rec.EngineTempC = 115 + g.rng.Float64()*20
	case roll < 0.05: // failing battery
		rec.BatteryVoltage = 10.5 + g.rng.Float64()*1.0
	case roll < 0.08: // wasteful idle
		rec.SpeedKmph = 0
		rec.RPM = 2500
		rec.FuelRate = 5.0
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
