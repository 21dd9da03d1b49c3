package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		severity float64
		want     string
	}{
		{severity: 1.0, want: CriticalValue},
		{severity: 0.8, want: CriticalValue},
		{severity: 0.79, want: HighValue},
		{severity: 0.6, want: HighValue},
		{severity: 0.59, want: ModerateValue},
		{severity: 0.3, want: ModerateValue},
		{severity: 0.29, want: LowValue},
		{severity: 0.0, want: LowValue},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GetPlainLabel(tt.severity), "severity %.2f", tt.severity)
	}
}

func TestGetColorLabel_ContainsPlainText(t *testing.T) {
	// Colored output still has to carry the label text itself.
	assert.Contains(t, GetColorLabel(0.9), CriticalValue)
	assert.Contains(t, GetColorLabel(0.7), HighValue)
	assert.Contains(t, GetColorLabel(0.4), ModerateValue)
	assert.Contains(t, GetColorLabel(0.1), LowValue)
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		maxWidth int
		want     string
	}{
		{name: "fits", id: "VH-0001", maxWidth: 12, want: "VH-0001"},
		{name: "exact width", id: "VH-0001", maxWidth: 7, want: "VH-0001"},
		{name: "truncated keeps suffix", id: "fleet-north-VH-0001", maxWidth: 10, want: "...VH-0001"},
		{name: "width too small to truncate", id: "VH-0001", maxWidth: 3, want: "VH-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateID(tt.id, tt.maxWidth)
			assert.Equal(t, tt.want, got)
			if tt.maxWidth > 3 {
				assert.LessOrEqual(t, len([]rune(got)), tt.maxWidth)
			}
		})
	}
}

func TestParseBoolString(t *testing.T) {
	truthy := []string{"yes", "YES", "true", "True", "1"}
	for _, s := range truthy {
		got, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, got, s)
	}

	falsy := []string{"no", "NO", "false", "False", "0"}
	for _, s := range falsy {
		got, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.False(t, got, s)
	}

	_, err := ParseBoolString("maybe")
	assert.Error(t, err)

	_, err = ParseBoolString("")
	assert.Error(t, err)
}

func TestGetStoreDBFilePath(t *testing.T) {
	path := GetStoreDBFilePath()
	assert.Contains(t, path, ".fleetsight_results.db")
}
