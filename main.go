// Fleetsight detects anomalies and trends in vehicle telemetry batches.
package main

import (
	"github.com/fleetsight/fleetsight/cmd"
	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/internal/telstore"
)

func main() {
	err := cmd.Execute()

	// Close database connections before any exit path
	if closeErr := telstore.CloseStores(); closeErr != nil {
		contract.LogWarn("Failed to close result store", closeErr)
	}

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
