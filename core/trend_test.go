package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/schema"
)

func makeReading(ts time.Time, speed, temp float64) schema.TelemetryRecord {
	return schema.TelemetryRecord{
		VehicleID:      "VH-0001",
		Timestamp:      ts,
		SpeedKmph:      speed,
		RPM:            2000,
		EngineTempC:    temp,
		BatteryVoltage: 13.5,
		FuelRate:       5,
	}
}

func TestTrendEngine_FirstRecord(t *testing.T) {
	eng := NewTrendEngine(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	enriched, err := eng.Enrich(makeReading(base, 50, 90))
	require.NoError(t, err)

	// No prior reading, so the delta fields stay unset.
	assert.Nil(t, enriched.PrevSpeed)
	assert.Nil(t, enriched.SpeedDelta)
	assert.Nil(t, enriched.RollingAvgDelta)
	assert.Equal(t, 90.0, enriched.RollingAvgTemp)
}

func TestTrendEngine_SpeedDelta(t *testing.T) {
	eng := NewTrendEngine(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := eng.Enrich(makeReading(base, 50, 90))
	require.NoError(t, err)

	enriched, err := eng.Enrich(makeReading(base.Add(time.Second), 80, 92))
	require.NoError(t, err)

	require.NotNil(t, enriched.PrevSpeed)
	require.NotNil(t, enriched.SpeedDelta)
	assert.Equal(t, 50.0, *enriched.PrevSpeed)
	assert.Equal(t, 30.0, *enriched.SpeedDelta)
}

func TestTrendEngine_RollingAverage(t *testing.T) {
	eng := NewTrendEngine(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	temps := []float64{90, 92, 94, 96, 98}
	// A window of 3 averages up to 3 preceding readings plus the current
	// one, so the deque holds at most 4 temperatures.
	want := []float64{90, 91, 92, 93, 95}

	for i, temp := range temps {
		enriched, err := eng.Enrich(makeReading(base.Add(time.Duration(i)*time.Second), 50, temp))
		require.NoError(t, err)
		assert.InDelta(t, want[i], enriched.RollingAvgTemp, 1e-9, "reading %d", i)
	}
}

func TestTrendEngine_RollingAvgDelta(t *testing.T) {
	eng := NewTrendEngine(2)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := eng.Enrich(makeReading(base, 50, 90))
	require.NoError(t, err)
	assert.Nil(t, first.RollingAvgDelta)

	second, err := eng.Enrich(makeReading(base.Add(time.Second), 50, 100))
	require.NoError(t, err)
	require.NotNil(t, second.RollingAvgDelta)
	// avg moved from 90 to 95
	assert.InDelta(t, 5.0, *second.RollingAvgDelta, 1e-9)
}

func TestTrendEngine_OutOfOrder(t *testing.T) {
	eng := NewTrendEngine(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := eng.Enrich(makeReading(base.Add(10*time.Second), 50, 90))
	require.NoError(t, err)

	_, err = eng.Enrich(makeReading(base, 55, 91))
	require.Error(t, err)
	assert.True(t, schema.IsDataQualityError(err))

	// State is untouched after the fault: the next in-order reading
	// still references the last good one.
	enriched, err := eng.Enrich(makeReading(base.Add(20*time.Second), 60, 92))
	require.NoError(t, err)
	require.NotNil(t, enriched.PrevSpeed)
	assert.Equal(t, 50.0, *enriched.PrevSpeed)
	assert.InDelta(t, 91.0, enriched.RollingAvgTemp, 1e-9)
}

func TestTrendEngine_EqualTimestampsAllowed(t *testing.T) {
	eng := NewTrendEngine(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := eng.Enrich(makeReading(base, 50, 90))
	require.NoError(t, err)

	// Ties are not a regression, only strictly earlier timestamps are.
	_, err = eng.Enrich(makeReading(base, 52, 91))
	assert.NoError(t, err)
}

func TestTrendEngine_WindowEviction(t *testing.T) {
	eng := NewTrendEngine(2)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	temps := []float64{100, 50, 50, 50}
	var last schema.EnrichedRecord
	for i, temp := range temps {
		var err error
		last, err = eng.Enrich(makeReading(base.Add(time.Duration(i)*time.Second), 50, temp))
		require.NoError(t, err)
	}

	// The initial 100 has left the window entirely.
	assert.InDelta(t, 50.0, last.RollingAvgTemp, 1e-9)
}
