package store

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// ResponseEmbedding is the stored vector for one answer, keyed by
// (case_id, response_id, question).
type ResponseEmbedding struct {
	ID         int64
	CaseID     string
	ResponseID string
	Question   Question

	Embedding []float32
	Model     string
	// SourceScore is the answer's primary summary score at embed time;
	// ScoreBucket is that score rounded to the nearest integer.
	SourceScore float64
	ScoreBucket int

	CreatedTs int64
	UpdatedTs int64
}

// BucketForScore quantizes a scalar score to its exemplar bucket.
func BucketForScore(score float64) int {
	return int(math.Round(score))
}

// FindResponseEmbedding is the find condition for response embeddings.
type FindResponseEmbedding struct {
	CaseID      *string
	Question    *Question
	ScoreBucket *int
}

// SimilarAnswer is one vector search hit joined with its scored answer.
type SimilarAnswer struct {
	Answer     *ScoredAnswer
	Similarity float64 // cosine similarity in [0, 1], higher is more similar
}

// SimilarAnswerSearchOptions are the options for answer similarity search.
type SimilarAnswerSearchOptions struct {
	Vector   []float32
	CaseID   string
	Question Question
	Limit    int
}

// Validate validates the SimilarAnswerSearchOptions.
func (o *SimilarAnswerSearchOptions) Validate() error {
	if o.CaseID == "" {
		return errors.New("case id cannot be empty")
	}
	if !o.Question.Valid() {
		return errors.Errorf("invalid question: %q", o.Question)
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 50
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	return nil
}

// UpsertResponseEmbeddings inserts or updates embeddings in one batch.
func (s *Store) UpsertResponseEmbeddings(ctx context.Context, embeddings []*ResponseEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return s.driver.UpsertResponseEmbeddings(ctx, embeddings)
}

// ListResponseEmbeddings lists response embeddings matching the find condition.
func (s *Store) ListResponseEmbeddings(ctx context.Context, find *FindResponseEmbedding) ([]*ResponseEmbedding, error) {
	return s.driver.ListResponseEmbeddings(ctx, find)
}

// CountResponseEmbeddings counts response embeddings in a case/question scope.
func (s *Store) CountResponseEmbeddings(ctx context.Context, caseID string, question Question) (int, error) {
	return s.driver.CountResponseEmbeddings(ctx, caseID, question)
}

// SearchSimilarAnswers performs cosine similarity search over stored
// embeddings scoped to one case and question, returning hits ranked by
// descending similarity with their scored answers attached.
func (s *Store) SearchSimilarAnswers(ctx context.Context, opts *SimilarAnswerSearchOptions) ([]*SimilarAnswer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.SearchSimilarAnswers(ctx, opts)
}
