package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteEmbeddingJob_RejectsNonTerminalStatus(t *testing.T) {
	s := &Store{}

	for _, status := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatus("finished")} {
		err := s.CompleteEmbeddingJob(context.Background(), &CompleteEmbeddingJob{ID: 1, Status: status})
		require.Error(t, err, "status %q must be rejected", status)
		assert.Contains(t, err.Error(), "invalid terminal status")
	}
}

func TestClaimPendingEmbeddingJobs_RejectsBadLimit(t *testing.T) {
	s := &Store{}

	_, err := s.ClaimPendingEmbeddingJobs(context.Background(), 0)
	require.Error(t, err)

	_, err = s.ClaimPendingEmbeddingJobs(context.Background(), -5)
	require.Error(t, err)
}

func TestEnqueueEmbeddingJob_RejectsInvalidQuestion(t *testing.T) {
	s := &Store{}

	_, err := s.EnqueueEmbeddingJob(context.Background(), "case-1", "r1", Question("q9"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid question")
}

func TestExemplarScope_Validate(t *testing.T) {
	scope := &ExemplarScope{CaseID: "case-1", Question: QuestionQ1, ScoreBucket: 3}
	require.NoError(t, scope.Validate())

	assert.Error(t, (&ExemplarScope{Question: QuestionQ1}).Validate())
	assert.Error(t, (&ExemplarScope{CaseID: "case-1", Question: "q9"}).Validate())
}
