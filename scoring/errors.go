package scoring

import (
	"fmt"

	"github.com/hrygo/scorelens/store"
)

// NoSimilarDataError indicates the corpus holds no embeddings for the
// requested case/question scope. Fatal to the request.
type NoSimilarDataError struct {
	CaseID   string
	Question store.Question
}

func (e *NoSimilarDataError) Error() string {
	return fmt.Sprintf("no scored answers available for case %s question %s", e.CaseID, e.Question)
}

// LowSimilarityError indicates every retrieved candidate fell below the
// minimum similarity floor. Fatal to the request.
type LowSimilarityError struct {
	MaxSimilarity float64
	Floor         float64
}

func (e *LowSimilarityError) Error() string {
	return fmt.Sprintf("all candidates below similarity floor %.2f (best %.3f)", e.Floor, e.MaxSimilarity)
}
