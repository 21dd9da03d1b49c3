//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedFleetsightPath holds the path to a shared fleetsight binary built once for all tests.
	sharedFleetsightPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getFleetsightBinary returns the path to the fleetsight binary, building it once if needed.
func getFleetsightBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "fleetsight-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		fleetsightPath := filepath.Join(tempDir, "fleetsight")
		buildCmd := exec.Command("go", "build", "-o", fleetsightPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build fleetsight: %v", err))
		}

		sharedFleetsightPath = fleetsightPath
	})

	return sharedFleetsightPath
}

// runFleetsightCommand runs the shared binary with the given args from the
// project root, logging output on failure.
func runFleetsightCommand(t *testing.T, args ...string) error {
	fleetsightPath := getFleetsightBinary()
	cmd := exec.Command(fleetsightPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
