package scoring

import "time"

// Options holds the predictor tunables. All thresholds operate on cosine
// similarity in [0, 1].
type Options struct {
	// TopK is the retrieval depth of the similarity search.
	TopK int
	// MinSimilarity is the floor below which candidates are dropped; if
	// every candidate falls below it the request fails.
	MinSimilarity float64
	// NearDuplicateSimilarity is the tier-a threshold: a candidate at or
	// above it is trusted outright for every field.
	NearDuplicateSimilarity float64
	// ModeLookupSimilarity is the tier-b threshold for the
	// similarity-weighted mode lookup.
	ModeLookupSimilarity float64
	// PrototypeFloor is the minimum mean similarity for a value prototype
	// to participate in the tier-c softmax blend.
	PrototypeFloor float64
	// SoftmaxTemperature scales the tier-c softmax.
	SoftmaxTemperature float64
	// HighConfidenceSimilarity is the threshold under which confidence is
	// penalized and the low-similarity warning is emitted.
	HighConfidenceSimilarity float64
	// LowConfidencePenalty multiplies confidence when the best candidate
	// is below HighConfidenceSimilarity.
	LowConfidencePenalty float64
	// MaxExamples caps the similar examples returned with a prediction.
	MaxExamples int
	// MinAnswerRunes is the early quality gate's length floor.
	MinAnswerRunes int
	// ScorerTimeout bounds the external scoring call; on expiry the
	// statistical fallback applies.
	ScorerTimeout time.Duration
}

// DefaultOptions returns the default predictor configuration.
func DefaultOptions() Options {
	return Options{
		TopK:                     50,
		MinSimilarity:            0.5,
		NearDuplicateSimilarity:  0.8,
		ModeLookupSimilarity:     0.6,
		PrototypeFloor:           0.4,
		SoftmaxTemperature:       2.0,
		HighConfidenceSimilarity: 0.7,
		LowConfidencePenalty:     0.8,
		MaxExamples:              3,
		MinAnswerRunes:           30,
		ScorerTimeout:            30 * time.Second,
	}
}
