package core

import (
	"fmt"

	"github.com/fleetsight/fleetsight/schema"
)

// Aggregate merges the rule flags and the model outcome for one record into
// a final AnomalyRecord. It is a pure function: same inputs, same output.
//
// Both sources contribute flags side by side with no deduplication; a rule
// flag and a statistical outlier flag on the same record are two findings.
// CombinedSeverity is the capped sum of flag severities, which makes it
// monotonic: adding a flag can only raise it (until the cap) and never
// lower it.
func Aggregate(rec schema.EnrichedRecord, ruleFlags []schema.AnomalyFlag, score float64, isOutlier bool) schema.AnomalyRecord {
	flags := make([]schema.AnomalyFlag, 0, len(ruleFlags)+1)
	flags = append(flags, ruleFlags...)

	if isOutlier {
		flags = append(flags, schema.AnomalyFlag{
			Kind:     schema.FlagStatisticalOutlier,
			Source:   schema.ModelSource,
			Severity: clamp01(score),
			Detail:   fmt.Sprintf("isolation score %.3f past decision boundary", score),
		})
	}

	combined := 0.0
	for _, f := range flags {
		combined += f.Severity
	}
	if combined > 1.0 {
		combined = 1.0
	}

	return schema.AnomalyRecord{
		EnrichedRecord:   rec,
		Flags:            flags,
		OutlierScore:     score,
		CombinedSeverity: combined,
		IsAnomalous:      len(flags) > 0,
	}
}
