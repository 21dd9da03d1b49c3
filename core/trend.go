package core

import (
	"github.com/fleetsight/fleetsight/schema"
)

// TrendEngine holds the rolling state for a single vehicle. It is not safe
// for concurrent use; the pipeline gives each vehicle partition its own
// instance.
type TrendEngine struct {
	window int

	// temps is a bounded deque holding up to window preceding temperatures
	// plus the current one. Memory stays constant per vehicle no matter how
	// long the stream runs.
	temps []float64

	prevSpeed  float64
	prevAvg    float64
	lastSeen   int64 // unix nanos of the last accepted record
	recordSeen bool
}

// NewTrendEngine creates a per-vehicle trend engine. window is the number of
// preceding records included in the rolling temperature average.
func NewTrendEngine(window int) *TrendEngine {
	return &TrendEngine{
		window: window,
		temps:  make([]float64, 0, window+1),
	}
}

// Enrich consumes the next record of the vehicle and returns it with rolling
// context attached. Timestamps must be non-decreasing within a vehicle; an
// older record is a structural fault and returns a DataQualityError without
// touching the state, so the partition can be failed fast.
func (t *TrendEngine) Enrich(rec schema.TelemetryRecord) (schema.EnrichedRecord, error) {
	ts := rec.Timestamp.UnixNano()
	if t.recordSeen && ts < t.lastSeen {
		return schema.EnrichedRecord{}, &schema.DataQualityError{
			VehicleID: rec.VehicleID,
			Timestamp: rec.Timestamp,
			Reason:    "timestamp is older than the preceding record",
		}
	}

	// Push the current temperature, evicting the oldest when full.
	if len(t.temps) == t.window+1 {
		copy(t.temps, t.temps[1:])
		t.temps = t.temps[:t.window]
	}
	t.temps = append(t.temps, rec.EngineTempC)

	sum := 0.0
	for _, v := range t.temps {
		sum += v
	}
	avg := sum / float64(len(t.temps))

	enriched := schema.EnrichedRecord{
		TelemetryRecord: rec,
		RollingAvgTemp:  avg,
	}

	if t.recordSeen {
		prevSpeed := t.prevSpeed
		delta := rec.SpeedKmph - prevSpeed
		avgDelta := avg - t.prevAvg
		enriched.PrevSpeed = &prevSpeed
		enriched.SpeedDelta = &delta
		enriched.RollingAvgDelta = &avgDelta
	}

	t.prevSpeed = rec.SpeedKmph
	t.prevAvg = avg
	t.lastSeen = ts
	t.recordSeen = true

	return enriched, nil
}
