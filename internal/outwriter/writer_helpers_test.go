package outwriter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/internal/contract"
)

func TestCreateFormatters(t *testing.T) {
	fmtFloat, intFmt := createFormatters(2)
	assert.Equal(t, "3.14", fmtFloat(3.14159))
	assert.Equal(t, "%d", intFmt)

	fmtFloat, _ = createFormatters(1)
	assert.Equal(t, "3.1", fmtFloat(3.14159))
	assert.Equal(t, "0.0", fmtFloat(0))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"count": 3}))
	assert.JSONEq(t, `{"count": 3}`, buf.String())
	// Indented output for human consumption.
	assert.Contains(t, buf.String(), "\n")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "2"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", buf.String())
}

func TestLabelFunc(t *testing.T) {
	// Colors only apply on a live terminal run with colors enabled.
	cfg := &contract.Config{UseColors: false}
	assert.Equal(t, contract.GetPlainLabel(0.9), labelFunc(cfg)(0.9))

	// Writing to a file always gets plain labels even with colors on.
	cfg = &contract.Config{UseColors: true, OutputFile: "out.txt"}
	assert.Equal(t, contract.GetPlainLabel(0.9), labelFunc(cfg)(0.9))
}

func TestGetMaxTableIDWidth(t *testing.T) {
	cfg := &contract.Config{Width: 200}
	assert.Equal(t, 120, getMaxTableIDWidth(cfg))

	// Narrow terminals still get the minimum ID budget.
	cfg = &contract.Config{Width: 60}
	assert.Equal(t, 12, getMaxTableIDWidth(cfg))
}
