package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{1.0, 1},
		{1.4, 1},
		{1.5, 2},
		{2.5, 3},
		{3.4, 3},
		{4.6, 5},
		{5.0, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketForScore(tt.score), "score %.1f", tt.score)
	}
}

func TestSimilarAnswerSearchOptions_Validate(t *testing.T) {
	valid := func() *SimilarAnswerSearchOptions {
		return &SimilarAnswerSearchOptions{
			Vector:   []float32{0.1},
			CaseID:   "case-1",
			Question: QuestionQ1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*SimilarAnswerSearchOptions)
		wantErr bool
		errMsg  string
	}{
		{"valid defaults", func(o *SimilarAnswerSearchOptions) {}, false, ""},
		{"empty case id", func(o *SimilarAnswerSearchOptions) { o.CaseID = "" }, true, "case id cannot be empty"},
		{"invalid question", func(o *SimilarAnswerSearchOptions) { o.Question = "q9" }, true, "invalid question"},
		{"empty vector", func(o *SimilarAnswerSearchOptions) { o.Vector = nil }, true, "vector cannot be empty"},
		{"negative limit", func(o *SimilarAnswerSearchOptions) { o.Limit = -1 }, true, "limit cannot be negative"},
		{"limit too large", func(o *SimilarAnswerSearchOptions) { o.Limit = 1001 }, true, "limit too large"},
		{"limit at max", func(o *SimilarAnswerSearchOptions) { o.Limit = 1000 }, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errMsg),
					"expected error to contain %q, got %q", tt.errMsg, err.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSimilarAnswerSearchOptions_Validate_SetsDefaultLimit(t *testing.T) {
	opts := &SimilarAnswerSearchOptions{Vector: []float32{0.1}, CaseID: "case-1", Question: QuestionQ1}

	err := opts.Validate()

	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit, "Limit should be set to default value 50")
}
