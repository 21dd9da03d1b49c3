// Package iforest implements an isolation forest for multivariate outlier
// scoring. A forest is fitted once over a training batch and is immutable
// afterwards, so a single instance can be shared across scoring goroutines.
package iforest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/fleetsight/fleetsight/schema"
)

// Options configures a Forest. Zero values are replaced by the defaults
// documented on each field.
type Options struct {
	// Trees is the ensemble size. Default 100.
	Trees int

	// SampleSize is the subsample drawn per tree. Default 256. Capped at
	// the training set size.
	SampleSize int

	// Contamination is the expected fraction of outliers in the training
	// data. The decision threshold is placed at the (1-Contamination)
	// quantile of the training scores. Default 0.03.
	Contamination float64

	// Seed pins the subsampling and split randomness. The same seed and
	// training data always produce the same model.
	Seed int64

	// MinFitSamples is the smallest training set Fit accepts. Default 32.
	MinFitSamples int
}

// node is a single split in an isolation tree. Leaves have left == nil and
// carry the number of samples that ended there.
type node struct {
	left, right *node
	feature     int
	split       float64
	size        int
}

// Forest is a fitted isolation forest. All fields are written once during
// Fit and read-only afterwards.
type Forest struct {
	opts      Options
	trees     []*node
	avgPathC  float64 // c(sampleSize), the normalization constant
	threshold float64
	dim       int
	fitted    bool
}

// New creates an unfitted forest with defaults applied.
func New(opts Options) *Forest {
	if opts.Trees <= 0 {
		opts.Trees = 100
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = 256
	}
	if opts.Contamination <= 0 {
		opts.Contamination = 0.03
	}
	if opts.MinFitSamples <= 0 {
		opts.MinFitSamples = 32
	}
	return &Forest{opts: opts}
}

// Fit trains the forest on the given samples. Every sample must have the
// same dimensionality. Fitting below MinFitSamples fails with
// ErrInsufficientSamples; a forest fitted on a handful of rows would call
// everything normal.
func (f *Forest) Fit(samples [][]float64) error {
	if len(samples) < f.opts.MinFitSamples {
		return fmt.Errorf("%w: got %d, need at least %d",
			schema.ErrInsufficientSamples, len(samples), f.opts.MinFitSamples)
	}

	dim := len(samples[0])
	for i, s := range samples {
		if len(s) != dim {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(s), dim)
		}
	}

	sampleSize := f.opts.SampleSize
	if sampleSize > len(samples) {
		sampleSize = len(samples)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))

	rng := rand.New(rand.NewSource(f.opts.Seed))
	trees := make([]*node, f.opts.Trees)
	for i := range trees {
		sub := subsample(rng, samples, sampleSize)
		trees[i] = buildTree(rng, sub, 0, maxDepth, dim)
	}

	f.trees = trees
	f.dim = dim
	f.avgPathC = averagePathLength(sampleSize)
	f.fitted = true

	// Place the decision boundary at the contamination quantile of the
	// training scores.
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = f.rawScore(s)
	}
	sort.Float64s(scores)
	idx := int(math.Ceil(float64(len(scores)) * (1.0 - f.opts.Contamination)))
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	f.threshold = scores[idx]

	return nil
}

// Score returns the anomaly score in [0, 1] for a feature vector, and
// whether it falls past the decision boundary. Scoring an unfitted forest
// is a caller bug and returns ErrModelNotFitted.
func (f *Forest) Score(features []float64) (float64, bool, error) {
	if !f.fitted {
		return 0, false, schema.ErrModelNotFitted
	}
	if len(features) != f.dim {
		return 0, false, fmt.Errorf("feature vector has %d values, model expects %d", len(features), f.dim)
	}
	score := f.rawScore(features)
	return score, score >= f.threshold, nil
}

// Threshold returns the fitted decision boundary.
func (f *Forest) Threshold() float64 {
	return f.threshold
}

// Fitted reports whether Fit has completed successfully.
func (f *Forest) Fitted() bool {
	return f.fitted
}

// rawScore computes 2^(-E[h(x)]/c(n)) over the ensemble.
func (f *Forest) rawScore(features []float64) float64 {
	total := 0.0
	for _, t := range f.trees {
		total += pathLength(t, features, 0)
	}
	mean := total / float64(len(f.trees))
	return math.Pow(2, -mean/f.avgPathC)
}

// subsample draws n rows without replacement via a partial Fisher-Yates
// shuffle over an index permutation.
func subsample(rng *rand.Rand, samples [][]float64, n int) [][]float64 {
	idx := make([]int, len(samples))
	for i := range idx {
		idx[i] = i
	}
	out := make([][]float64, n)
	for i := range n {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = samples[idx[i]]
	}
	return out
}

// buildTree grows an isolation tree by splitting on a random feature at a
// random point between the observed min and max.
func buildTree(rng *rand.Rand, samples [][]float64, depth, maxDepth, dim int) *node {
	if depth >= maxDepth || len(samples) <= 1 {
		return &node{size: len(samples)}
	}

	feature := rng.Intn(dim)
	lo, hi := samples[0][feature], samples[0][feature]
	for _, s := range samples[1:] {
		v := s[feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// Constant feature in this partition; nothing left to isolate on.
		return &node{size: len(samples)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, s := range samples {
		if s[feature] < split {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	return &node{
		feature: feature,
		split:   split,
		left:    buildTree(rng, left, depth+1, maxDepth, dim),
		right:   buildTree(rng, right, depth+1, maxDepth, dim),
	}
}

// pathLength walks a tree and returns the path depth plus the expected
// remaining depth for unsplit leaf populations.
func pathLength(n *node, features []float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePathLength(n.size)
	}
	if features[n.feature] < n.split {
		return pathLength(n.left, features, depth+1)
	}
	return pathLength(n.right, features, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// BST search over n samples.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const euler = 0.5772156649
	h := math.Log(float64(n-1)) + euler
	return 2.0*h - 2.0*float64(n-1)/float64(n)
}
