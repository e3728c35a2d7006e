// Package worker implements the embedding job processor: it drains the
// queue of answers that still need embeddings with bounded concurrency,
// retry with backoff, and per-job status tracking.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/ai"
	"github.com/hrygo/scorelens/internal/metrics"
	"github.com/hrygo/scorelens/store"
)

// JobStore is the persistence surface the processor needs.
// *store.Store satisfies this.
type JobStore interface {
	ClaimPendingEmbeddingJobs(ctx context.Context, limit int) ([]*store.EmbeddingJob, error)
	CompleteEmbeddingJob(ctx context.Context, complete *store.CompleteEmbeddingJob) error
	GetScoredAnswer(ctx context.Context, caseID, responseID string, question store.Question) (*store.ScoredAnswer, error)
	UpsertResponseEmbeddings(ctx context.Context, embeddings []*store.ResponseEmbedding) error
}

// Embedder generates embedding vectors. ai.EmbeddingService satisfies this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds configuration for the job processor.
type Config struct {
	// Concurrency limits parallel embedding calls within one batch.
	Concurrency int
	// MaxRetries is the per-job embedding attempt cap within one pass.
	MaxRetries int
	// InitialBackoff is the base delay; attempt n waits
	// InitialBackoff * 2^n, or * 3^n after a rate-limit failure.
	InitialBackoff time.Duration
	// Model is the embedding model identifier recorded with each vector.
	Model string
}

// DefaultConfig returns the default processor configuration.
func DefaultConfig(model string) *Config {
	return &Config{
		Concurrency:    15,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		Model:          model,
	}
}

// BatchResult summarizes one ProcessBatch pass.
type BatchResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// DimensionMismatchError indicates the embedding provider returned a
// vector of the wrong length. Not retried within the current attempt
// cycle; the embedding is discarded, never stored.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: got %d, want %d", e.Got, e.Want)
}

// Processor drains the embedding job queue.
type Processor struct {
	store    JobStore
	embedder Embedder
	config   *Config
}

// NewProcessor creates a new job processor.
func NewProcessor(store JobStore, embedder Embedder, config *Config) *Processor {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 15
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	return &Processor{store: store, embedder: embedder, config: config}
}

// jobOutcome is one claimed job's result, collected after all workers
// finish.
type jobOutcome struct {
	job       *store.EmbeddingJob
	embedding *store.ResponseEmbedding
	err       error
}

// ProcessBatch claims up to limit pending jobs and processes them with
// bounded concurrency. Job-level errors are isolated: one bad answer
// never aborts the batch, and the method returns counts rather than
// raising for partial failure. Every claimed job ends in done or error.
func (p *Processor) ProcessBatch(ctx context.Context, limit int) (BatchResult, error) {
	jobs, err := p.store.ClaimPendingEmbeddingJobs(ctx, limit)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "failed to claim pending jobs")
	}
	if len(jobs) == 0 {
		return BatchResult{}, nil
	}

	outcomes := make([]jobOutcome, len(jobs))
	sem := make(chan struct{}, p.config.Concurrency)
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job *store.EmbeddingJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			embedding, err := p.processJob(ctx, job)
			outcomes[i] = jobOutcome{job: job, embedding: embedding, err: err}
		}(i, job)
	}
	wg.Wait()

	// Persist all successful embeddings in one batch upsert to keep
	// store round-trips down.
	succeeded := make([]*store.ResponseEmbedding, 0, len(outcomes))
	for i := range outcomes {
		if outcomes[i].err == nil {
			succeeded = append(succeeded, outcomes[i].embedding)
		}
	}
	if len(succeeded) > 0 {
		if err := p.store.UpsertResponseEmbeddings(ctx, succeeded); err != nil {
			// The store rejected the whole batch; fail every job that
			// depended on it so none is left in processing.
			for i := range outcomes {
				if outcomes[i].err == nil {
					outcomes[i].err = errors.Wrap(err, "failed to persist embedding")
				}
			}
		}
	}

	result := BatchResult{Processed: len(outcomes)}
	for i := range outcomes {
		status := store.JobStatusDone
		lastError := ""
		if outcomes[i].err != nil {
			status = store.JobStatusError
			lastError = outcomes[i].err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		if err := p.store.CompleteEmbeddingJob(ctx, &store.CompleteEmbeddingJob{
			ID:        outcomes[i].job.ID,
			Status:    status,
			LastError: lastError,
		}); err != nil {
			slog.Error("failed to finalize embedding job",
				"job_id", outcomes[i].job.ID,
				"status", status,
				"error", err,
			)
		}
		metrics.JobsProcessed.WithLabelValues(string(status)).Inc()
	}

	slog.Info("embedding batch processed",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// processJob resolves the job's source text and embeds it under the
// retry policy.
func (p *Processor) processJob(ctx context.Context, job *store.EmbeddingJob) (*store.ResponseEmbedding, error) {
	answer, err := p.store.GetScoredAnswer(ctx, job.CaseID, job.ResponseID, job.Question)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve scored answer")
	}
	if answer == nil {
		return nil, errors.Errorf("scored answer not found for %s/%s/%s", job.CaseID, job.ResponseID, job.Question)
	}

	text := answer.SourceText()
	if text == "" {
		// Retrying will not produce text; fail the job descriptively.
		return nil, errors.Errorf("no answer text for %s/%s/%s", job.CaseID, job.ResponseID, job.Question)
	}

	vector, err := p.embedWithRetry(ctx, text)
	if err != nil {
		return nil, err
	}

	sourceScore := answer.PrimaryScore()
	return &store.ResponseEmbedding{
		CaseID:      job.CaseID,
		ResponseID:  job.ResponseID,
		Question:    job.Question,
		Embedding:   vector,
		Model:       p.config.Model,
		SourceScore: sourceScore,
		ScoreBucket: store.BucketForScore(sourceScore),
	}, nil
}

// embedWithRetry calls the embedder up to MaxRetries times. Transient
// failures back off exponentially, rate limits more aggressively; a
// dimension mismatch fails the cycle immediately since repeating the call
// cannot change the provider's output shape.
func (p *Processor) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, p.backoff(attempt, lastErr)); err != nil {
				return nil, err
			}
		}

		vector, err := p.embedder.Embed(ctx, text)
		if err == nil {
			if want := p.embedder.Dimensions(); len(vector) != want {
				return nil, &DimensionMismatchError{Got: len(vector), Want: want}
			}
			return vector, nil
		}

		lastErr = err
		if !ai.IsTransientError(err) {
			break
		}
		slog.Warn("embedding call failed, will retry",
			"attempt", attempt+1,
			"rate_limited", ai.IsRateLimitError(err),
			"error", err,
		)
	}
	return nil, errors.Wrap(lastErr, "embedding failed")
}

// backoff computes the delay before the given attempt based on the
// previous failure.
func (p *Processor) backoff(attempt int, lastErr error) time.Duration {
	base := 2.0
	if ai.IsRateLimitError(lastErr) {
		base = 3.0
	}
	return time.Duration(float64(p.config.InitialBackoff) * math.Pow(base, float64(attempt)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
