//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFleetsightWithMySQL tests the fleetsight CLI with a MySQL backend.
func TestFleetsightWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "fleetsight",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/fleetsight?parseTime=true", host, port.Port())

	// Set environment variables
	_ = os.Setenv("FLEETSIGHT_STORE_BACKEND", "mysql")
	_ = os.Setenv("FLEETSIGHT_STORE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("FLEETSIGHT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("FLEETSIGHT_STORE_DB_CONNECT") }()

	runBatchAgainstStore(t)
}

// TestFleetsightWithPostgres tests the fleetsight CLI with a PostgreSQL backend.
func TestFleetsightWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	// Set environment variables
	_ = os.Setenv("FLEETSIGHT_STORE_BACKEND", "postgresql")
	_ = os.Setenv("FLEETSIGHT_STORE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("FLEETSIGHT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("FLEETSIGHT_STORE_DB_CONNECT") }()

	runBatchAgainstStore(t)
}

// runBatchAgainstStore drives a full generate/analyze/report cycle against
// whatever store backend the environment selects.
func runBatchAgainstStore(t *testing.T) {
	workDir := t.TempDir()
	inputPath := filepath.Join(workDir, "telemetry.parquet")

	// Start from a clean store
	err := runFleetsightCommand(t, "store", "clear")
	require.NoError(t, err)

	// Generate and analyze a batch
	err = runFleetsightCommand(t, "generate",
		"--vehicles", "3", "--records", "100", "--output-file", inputPath)
	require.NoError(t, err)
	err = runFleetsightCommand(t, "analyze", inputPath, "--limit", "5")
	require.NoError(t, err)

	// The persisted data answers status and reports
	err = runFleetsightCommand(t, "store", "status")
	require.NoError(t, err)
	err = runFleetsightCommand(t, "report", "fleet")
	require.NoError(t, err)
	err = runFleetsightCommand(t, "report", "vehicles", "--limit", "5")
	require.NoError(t, err)
}
