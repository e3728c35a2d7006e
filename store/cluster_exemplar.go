package store

import (
	"context"

	"github.com/pkg/errors"
)

// ClusterExemplar is one representative answer for a score bucket, derived
// by clustering the bucket's embeddings. Rows are ephemeral: the whole
// (case, question, bucket) set is replaced atomically on rebuild.
type ClusterExemplar struct {
	ID          int64
	CaseID      string
	Question    Question
	ScoreBucket int
	ClusterID   int

	ClusterSize        int
	Centroid           []float32
	ResponseID         string // the medoid's response
	DistanceToCentroid float64
	Model              string

	CreatedTs int64
}

// ExemplarScope identifies one replaceable exemplar set.
type ExemplarScope struct {
	CaseID      string
	Question    Question
	ScoreBucket int
}

// Validate validates the ExemplarScope.
func (sc *ExemplarScope) Validate() error {
	if sc.CaseID == "" {
		return errors.New("case id cannot be empty")
	}
	if !sc.Question.Valid() {
		return errors.Errorf("invalid question: %q", sc.Question)
	}
	return nil
}

// ReplaceClusterExemplars deletes the scope's previous exemplars and
// inserts the new set in a single transaction; passing an empty set just
// clears the scope.
func (s *Store) ReplaceClusterExemplars(ctx context.Context, scope *ExemplarScope, exemplars []*ClusterExemplar) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return s.driver.ReplaceClusterExemplars(ctx, scope, exemplars)
}

// ListClusterExemplars lists the current exemplar set for a scope.
func (s *Store) ListClusterExemplars(ctx context.Context, scope *ExemplarScope) ([]*ClusterExemplar, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.driver.ListClusterExemplars(ctx, scope)
}
