package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all the methods that the store needs to implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// ScoredAnswer
	CreateScoredAnswer(ctx context.Context, create *ScoredAnswer) (*ScoredAnswer, error)
	ListScoredAnswers(ctx context.Context, find *FindScoredAnswer) ([]*ScoredAnswer, error)

	// EmbeddingJob
	EnqueueEmbeddingJob(ctx context.Context, caseID, responseID string, question Question) (*EmbeddingJob, error)
	ClaimPendingEmbeddingJobs(ctx context.Context, limit int) ([]*EmbeddingJob, error)
	CompleteEmbeddingJob(ctx context.Context, complete *CompleteEmbeddingJob) error
	ListEmbeddingJobs(ctx context.Context, find *FindEmbeddingJob) ([]*EmbeddingJob, error)

	// ResponseEmbedding
	UpsertResponseEmbeddings(ctx context.Context, embeddings []*ResponseEmbedding) error
	ListResponseEmbeddings(ctx context.Context, find *FindResponseEmbedding) ([]*ResponseEmbedding, error)
	CountResponseEmbeddings(ctx context.Context, caseID string, question Question) (int, error)
	SearchSimilarAnswers(ctx context.Context, opts *SimilarAnswerSearchOptions) ([]*SimilarAnswer, error)

	// ClusterExemplar
	ReplaceClusterExemplars(ctx context.Context, scope *ExemplarScope, exemplars []*ClusterExemplar) error
	ListClusterExemplars(ctx context.Context, scope *ExemplarScope) ([]*ClusterExemplar, error)
}
