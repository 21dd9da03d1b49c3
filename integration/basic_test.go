//go:build basic

// Package integration contains end-to-end tests for the fleetsight CLI.
// These tests are excluded from normal test runs due to build tags.
// To run them: go test -tags basic ./integration
package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFleetsightBatchLifecycle generates a synthetic batch, analyzes it with
// a throwaway SQLite store, and checks that the run landed in the store and
// the reports answer.
func TestFleetsightBatchLifecycle(t *testing.T) {
	workDir := t.TempDir()
	inputPath := filepath.Join(workDir, "telemetry.parquet")
	dbPath := filepath.Join(workDir, "results.db")

	t.Setenv("FLEETSIGHT_STORE_BACKEND", "sqlite")
	t.Setenv("FLEETSIGHT_STORE_DB_CONNECT", dbPath)

	// 1. Generate a synthetic batch
	err := runFleetsightCommand(t, "generate",
		"--vehicles", "3", "--records", "100", "--output-file", inputPath)
	require.NoError(t, err)
	_, err = os.Stat(inputPath)
	require.NoError(t, err)

	// 2. Analyze it
	err = runFleetsightCommand(t, "analyze", inputPath, "--limit", "10")
	require.NoError(t, err)

	// 3. The run must be visible in store status
	out := captureFleetsightOutput(t, "store", "status")
	assert.Contains(t, out, "Total Runs: 1")
	assert.Contains(t, out, "fleetsight_anomalies")

	// 4. Reports answer from the persisted data
	err = runFleetsightCommand(t, "report", "fleet")
	require.NoError(t, err)
	err = runFleetsightCommand(t, "report", "vehicles", "--limit", "5")
	require.NoError(t, err)
	err = runFleetsightCommand(t, "report", "idle")
	require.NoError(t, err)

	// 5. The executive summary runs the whole pipeline again
	err = runFleetsightCommand(t, "summarize", inputPath)
	require.NoError(t, err)
}

// TestFleetsightOutputFormats runs analyze with every output mode.
func TestFleetsightOutputFormats(t *testing.T) {
	workDir := t.TempDir()
	inputPath := filepath.Join(workDir, "telemetry.parquet")

	t.Setenv("FLEETSIGHT_STORE_BACKEND", "none")

	err := runFleetsightCommand(t, "generate",
		"--vehicles", "2", "--records", "100", "--output-file", inputPath)
	require.NoError(t, err)

	for _, mode := range []string{"csv", "json"} {
		outPath := filepath.Join(workDir, "out."+mode)
		err = runFleetsightCommand(t, "analyze", inputPath,
			"--output", mode, "--output-file", outPath)
		require.NoError(t, err, "output mode %s", mode)

		info, err := os.Stat(outPath)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	parquetPath := filepath.Join(workDir, "out.parquet")
	err = runFleetsightCommand(t, "analyze", inputPath,
		"--output", "parquet", "--output-file", parquetPath)
	require.NoError(t, err)
	_, err = os.Stat(parquetPath)
	require.NoError(t, err)
}

// TestFleetsightStoreClear wipes the store and verifies a fresh status.
func TestFleetsightStoreClear(t *testing.T) {
	workDir := t.TempDir()
	inputPath := filepath.Join(workDir, "telemetry.parquet")
	dbPath := filepath.Join(workDir, "results.db")

	t.Setenv("FLEETSIGHT_STORE_BACKEND", "sqlite")
	t.Setenv("FLEETSIGHT_STORE_DB_CONNECT", dbPath)

	err := runFleetsightCommand(t, "generate",
		"--vehicles", "2", "--records", "100", "--output-file", inputPath)
	require.NoError(t, err)
	err = runFleetsightCommand(t, "analyze", inputPath)
	require.NoError(t, err)

	err = runFleetsightCommand(t, "store", "clear")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err), "store clear should remove the SQLite file")
}

// TestFleetsightRejectsBadFlags checks flag validation surfaces as an error exit.
func TestFleetsightRejectsBadFlags(t *testing.T) {
	t.Setenv("FLEETSIGHT_STORE_BACKEND", "none")

	err := runFleetsightCommand(t, "analyze", "whatever.parquet", "--limit", "0")
	assert.Error(t, err)

	err = runFleetsightCommand(t, "analyze", "whatever.parquet", "--output", "xml")
	assert.Error(t, err)
}

// captureFleetsightOutput runs the binary and returns combined output,
// failing the test on a non-zero exit.
func captureFleetsightOutput(t *testing.T, args ...string) string {
	fleetsightPath := getFleetsightBinary()
	cmd := exec.Command(fleetsightPath, args...)
	cmd.Dir = "../"
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	require.NoError(t, err, "command output: %s", buf.String())
	return buf.String()
}
