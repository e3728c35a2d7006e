package store

import (
	"context"

	"github.com/pkg/errors"
)

// JobStatus is the embedding job state machine.
// Transitions: pending -> processing -> {done | error}. A done job is never
// re-embedded unless explicitly re-enqueued.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// EmbeddingJob is one unit of pending embedding work, keyed by
// (case_id, response_id, question).
type EmbeddingJob struct {
	ID         int64
	CaseID     string
	ResponseID string
	Question   Question

	Status    JobStatus
	Attempts  int
	LastError string

	CreatedTs int64
	UpdatedTs int64
}

// FindEmbeddingJob is the find condition for embedding jobs.
type FindEmbeddingJob struct {
	CaseID     *string
	ResponseID *string
	Question   *Question
	Status     *JobStatus
	Limit      int
}

// CompleteEmbeddingJob is the terminal update for a claimed job.
type CompleteEmbeddingJob struct {
	ID        int64
	Status    JobStatus // done or error
	LastError string
}

// EnqueueEmbeddingJob creates a pending job for the key, or resets an
// existing error job back to pending. Jobs in done or processing are left
// untouched.
func (s *Store) EnqueueEmbeddingJob(ctx context.Context, caseID, responseID string, question Question) (*EmbeddingJob, error) {
	if !question.Valid() {
		return nil, errors.Errorf("invalid question: %q", question)
	}
	return s.driver.EnqueueEmbeddingJob(ctx, caseID, responseID, question)
}

// ClaimPendingEmbeddingJobs atomically claims up to limit pending jobs,
// ordered by creation time: each claimed job moves to processing with
// attempts incremented in the same statement, so two concurrent processors
// never claim the same row.
func (s *Store) ClaimPendingEmbeddingJobs(ctx context.Context, limit int) ([]*EmbeddingJob, error) {
	if limit <= 0 {
		return nil, errors.Errorf("claim limit must be positive: %d", limit)
	}
	return s.driver.ClaimPendingEmbeddingJobs(ctx, limit)
}

// CompleteEmbeddingJob marks a claimed job done or error.
func (s *Store) CompleteEmbeddingJob(ctx context.Context, complete *CompleteEmbeddingJob) error {
	if complete.Status != JobStatusDone && complete.Status != JobStatusError {
		return errors.Errorf("invalid terminal status: %q", complete.Status)
	}
	return s.driver.CompleteEmbeddingJob(ctx, complete)
}

// ListEmbeddingJobs lists embedding jobs matching the find condition.
func (s *Store) ListEmbeddingJobs(ctx context.Context, find *FindEmbeddingJob) ([]*EmbeddingJob, error) {
	return s.driver.ListEmbeddingJobs(ctx, find)
}
