package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/fleetsight/fleetsight/core/iforest"
	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// PipelineResult is the full output of one batch run.
type PipelineResult struct {
	// Records holds the aggregated outcome for every record that passed
	// validation and enrichment, grouped by vehicle in first-seen order
	// with per-vehicle input order preserved.
	Records []schema.AnomalyRecord

	// Quarantined holds every rejected record with its reason, in input
	// order.
	Quarantined []schema.QuarantinedRecord

	// PartitionErrors holds one DataQualityError per vehicle partition
	// that failed fast on an out-of-order timestamp. Records of the
	// partition after the violation were skipped, not reordered.
	PartitionErrors []error

	// ModelThreshold is the fitted decision boundary, kept for reporting.
	ModelThreshold float64
}

// vehiclePartition is one vehicle's validated records in input order.
type vehiclePartition struct {
	vehicleID string
	records   []schema.TelemetryRecord
}

// RunPipeline executes the whole batch: validation, per-vehicle trend
// enrichment, model fitting, and the combined rule/model detection pass.
//
// The run is two-phase. Phase one enriches partitions in parallel and
// collects the feature matrix; the forest is then fitted once. Phase two
// scores and rule-checks every enriched record in parallel against the
// shared read-only model. Per-record findings never abort the batch; only
// model or configuration failures do.
func RunPipeline(ctx context.Context, cfg *contract.Config, records []schema.TelemetryRecord) (*PipelineResult, error) {
	result := &PipelineResult{}

	// --- 1. Validation gate ---
	validator := NewValidator(cfg.Bounds)
	partitions, quarantined := partitionValid(validator, records)
	result.Quarantined = quarantined

	// --- 2. Enrichment phase (parallel across vehicles) ---
	enrichedParts, partErrs := enrichPartitions(ctx, cfg, partitions)
	result.PartitionErrors = partErrs

	var enriched []schema.EnrichedRecord
	for _, part := range enrichedParts {
		enriched = append(enriched, part...)
	}
	if len(enriched) == 0 {
		return result, nil
	}

	// --- 3. Model fitting ---
	forest := iforest.New(iforest.Options{
		Trees:         cfg.Model.Trees,
		SampleSize:    cfg.Model.SampleSize,
		Contamination: cfg.Model.Contamination,
		Seed:          cfg.Model.Seed,
		MinFitSamples: cfg.Model.MinFitSamples,
	})
	features := make([][]float64, len(enriched))
	for i := range enriched {
		features[i] = FeatureVector(&enriched[i])
	}
	if err := forest.Fit(features); err != nil {
		return nil, fmt.Errorf("model fitting failed: %w", err)
	}
	result.ModelThreshold = forest.Threshold()

	// --- 4. Detection phase (parallel across records) ---
	records2, err := detectAll(ctx, cfg, forest, enriched, features)
	if err != nil {
		return nil, err
	}
	result.Records = records2

	return result, nil
}

// FeatureVector builds the model input for one enriched record, in the
// fixed schema.FeatureNames order.
func FeatureVector(rec *schema.EnrichedRecord) []float64 {
	return []float64{
		rec.SpeedKmph,
		rec.RPM,
		rec.EngineTempC,
		rec.BatteryVoltage,
		rec.FuelRate,
		rec.RollingAvgTemp,
	}
}

// partitionValid runs the validation gate over the batch and splits the
// survivors into per-vehicle partitions, keeping first-seen vehicle order
// and per-vehicle input order.
func partitionValid(validator *Validator, records []schema.TelemetryRecord) ([]vehiclePartition, []schema.QuarantinedRecord) {
	var quarantined []schema.QuarantinedRecord
	index := make(map[string]int)
	var partitions []vehiclePartition

	for _, rec := range records {
		outcome := validator.Validate(&rec)
		if !outcome.Valid {
			quarantined = append(quarantined, schema.QuarantinedRecord{
				TelemetryRecord: rec,
				Reason:          outcome.Reason,
			})
			continue
		}

		i, ok := index[rec.VehicleID]
		if !ok {
			i = len(partitions)
			index[rec.VehicleID] = i
			partitions = append(partitions, vehiclePartition{vehicleID: rec.VehicleID})
		}
		partitions[i].records = append(partitions[i].records, rec)
	}

	return partitions, quarantined
}

// enrichPartitions runs the trend engine over every partition using a
// bounded worker pool. Each worker owns the trend state for the partition
// it is processing, so no state is shared across vehicles.
func enrichPartitions(ctx context.Context, cfg *contract.Config, partitions []vehiclePartition) ([][]schema.EnrichedRecord, []error) {
	results := make([][]schema.EnrichedRecord, len(partitions))
	errs := make([]error, len(partitions))

	partCh := make(chan int, len(partitions))
	var wg sync.WaitGroup

	// Start worker pool
	for range cfg.Workers {
		wg.Go(func() {
			for i := range partCh {
				if ctx.Err() != nil {
					return
				}
				results[i], errs[i] = enrichPartition(cfg.WindowSize, partitions[i])
			}
		})
	}

	for i := range partitions {
		partCh <- i
	}
	close(partCh)
	wg.Wait()

	var partErrs []error
	for _, err := range errs {
		if err != nil {
			partErrs = append(partErrs, err)
		}
	}
	return results, partErrs
}

// enrichPartition enriches one vehicle in order, stopping at the first
// structural fault. Records enriched before the fault stay in the batch.
func enrichPartition(window int, part vehiclePartition) ([]schema.EnrichedRecord, error) {
	engine := NewTrendEngine(window)
	out := make([]schema.EnrichedRecord, 0, len(part.records))
	for _, rec := range part.records {
		enriched, err := engine.Enrich(rec)
		if err != nil {
			return out, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// detectAll scores and rule-checks every enriched record against the shared
// fitted model, writing each result to a unique index so output order is
// deterministic regardless of worker scheduling.
func detectAll(ctx context.Context, cfg *contract.Config, forest *iforest.Forest, enriched []schema.EnrichedRecord, features [][]float64) ([]schema.AnomalyRecord, error) {
	rules := DefaultRules(cfg.Thresholds)
	out := make([]schema.AnomalyRecord, len(enriched))
	scoreErrs := make([]error, len(enriched))

	idxCh := make(chan int, len(enriched))
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Go(func() {
			for i := range idxCh {
				if ctx.Err() != nil {
					return
				}
				score, isOutlier, err := forest.Score(features[i])
				if err != nil {
					scoreErrs[i] = err
					continue
				}
				flags := EvaluateRules(rules, &enriched[i])
				out[i] = Aggregate(enriched[i], flags, score, isOutlier)
			}
		})
	}

	for i := range enriched {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range scoreErrs {
		if err != nil {
			return nil, fmt.Errorf("scoring failed: %w", err)
		}
	}
	return out, nil
}
