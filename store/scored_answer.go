package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Question identifies which assessment question an answer belongs to.
type Question string

const (
	QuestionQ1 Question = "q1"
	QuestionQ2 Question = "q2"
)

// Valid reports whether q is a known question identifier.
func (q Question) Valid() bool {
	return q == QuestionQ1 || q == QuestionQ2
}

// ScoredAnswer is a previously evaluated free-text answer, the unit of the
// retrieval corpus. For question 2 the answer is split across the main text
// and the supplementary sections; SourceText joins them back together.
type ScoredAnswer struct {
	ID         int64
	CaseID     string
	ResponseID string
	Question   Question

	AnswerText string
	// Question-2 family supplements; empty for q1 rows.
	ProblemStatement string
	SolutionProposal string
	LessonsLearned   string

	Scores  ScoreSet
	Comment string

	CreatedTs int64
}

// SourceText resolves the text to embed for this answer: the main answer
// text for q1, and all question-2-family sections joined with newlines for
// q2. Empty sections are skipped.
func (a *ScoredAnswer) SourceText() string {
	if a.Question == QuestionQ1 {
		return strings.TrimSpace(a.AnswerText)
	}
	parts := make([]string, 0, 4)
	for _, s := range []string{a.AnswerText, a.ProblemStatement, a.SolutionProposal, a.LessonsLearned} {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// PrimaryScore returns the summary score used as the embedding's source
// scalar: problem for q1 answers, solution for q2 answers.
func (a *ScoredAnswer) PrimaryScore() float64 {
	if a.Question == QuestionQ1 {
		return a.Scores.Summary.Problem
	}
	return a.Scores.Summary.Solution
}

// FindScoredAnswer is the find condition for scored answers.
type FindScoredAnswer struct {
	CaseID     *string
	ResponseID *string
	Question   *Question
	Limit      int
}

// CreateScoredAnswer inserts a scored answer and enqueues its embedding job
// in one transaction (exactly one job per (case, response, question) key).
func (s *Store) CreateScoredAnswer(ctx context.Context, create *ScoredAnswer) (*ScoredAnswer, error) {
	if !create.Question.Valid() {
		return nil, errors.Errorf("invalid question: %q", create.Question)
	}
	if create.CaseID == "" {
		return nil, errors.New("case id cannot be empty")
	}
	if create.ResponseID == "" {
		create.ResponseID = uuid.NewString()
	}
	return s.driver.CreateScoredAnswer(ctx, create)
}

// GetScoredAnswer fetches one scored answer by its natural key.
func (s *Store) GetScoredAnswer(ctx context.Context, caseID, responseID string, question Question) (*ScoredAnswer, error) {
	q := question
	list, err := s.driver.ListScoredAnswers(ctx, &FindScoredAnswer{
		CaseID:     &caseID,
		ResponseID: &responseID,
		Question:   &q,
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListScoredAnswers lists scored answers matching the find condition.
func (s *Store) ListScoredAnswers(ctx context.Context, find *FindScoredAnswer) ([]*ScoredAnswer, error) {
	return s.driver.ListScoredAnswers(ctx, find)
}
