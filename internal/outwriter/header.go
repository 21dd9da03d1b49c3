package outwriter

import (
	"fmt"
	"path/filepath"

	"github.com/fleetsight/fleetsight/internal/contract"
)

// LogAnalysisHeader prints a concise, 2-line header for each batch run.
func LogAnalysisHeader(cfg *contract.Config) {
	inputName := filepath.Base(cfg.InputFile)
	if inputName == "" || inputName == "." {
		inputName = "stdin"
	}

	prefixScan, prefixModel := "🔎", "🌲"
	if !cfg.UseEmojis {
		prefixScan, prefixModel = ">", ">"
	}

	// Line 1: The batch summary (input and concurrency)
	fmt.Printf("%s Input: %s (window: %d, workers: %d)\n", prefixScan, inputName, cfg.WindowSize, cfg.Workers)

	// Line 2: The model parameters in effect
	fmt.Printf("%s Model: %d trees, contamination %.2f, seed %d\n", prefixModel, cfg.Model.Trees, cfg.Model.Contamination, cfg.Model.Seed)
}
