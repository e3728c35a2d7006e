package scoring

import (
	"context"

	"github.com/hrygo/scorelens/store"
)

// Embedder turns an answer text into its embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilarSearcher retrieves stored answers ranked by similarity.
// *store.Store satisfies this.
type SimilarSearcher interface {
	SearchSimilarAnswers(ctx context.Context, opts *store.SimilarAnswerSearchOptions) ([]*store.SimilarAnswer, error)
}

// ValueStat describes how often one field value occurs among the
// candidates and how similar those candidates are on average.
type ValueStat struct {
	Value          float64 `json:"value"`
	Count          int     `json:"count"`
	MeanSimilarity float64 `json:"mean_similarity"`
}

// FieldDistribution is the per-field value distribution handed to the
// external scoring service as context.
type FieldDistribution struct {
	Field  DetailField
	Values []ValueStat
}

// ScoreRequest is the structured call to the external scoring service.
type ScoreRequest struct {
	CaseID     string
	Question   store.Question
	AnswerText string

	Examples      []*store.SimilarAnswer
	Distributions []FieldDistribution

	// Embedding-only scores, provided as per-field context and used by
	// the predictor as fallback when the service omits a field.
	EmbeddingSummary store.SummaryScores
	EmbeddingDetail  DetailPrediction
}

// ScoreResult is the external scoring service's verdict. Nil detail
// fields mean the service omitted them; nil role/leadership/development
// mean the statistical estimates stand.
type ScoreResult struct {
	IsValidAnswer bool
	Detail        DetailPrediction
	Role          *float64
	Leadership    *float64
	Development   *float64
	Explanation   string
}

// AnswerScorer is the optional external scoring/explanation capability.
// Implementations must be safe to swap for a deterministic mock; the
// predictor treats a nil scorer as disabled.
type AnswerScorer interface {
	ScoreAnswer(ctx context.Context, req *ScoreRequest) (*ScoreResult, error)
}
