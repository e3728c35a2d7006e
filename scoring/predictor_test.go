package scoring

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/scorelens/store"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	hits []*store.SimilarAnswer
	err  error
	opts *store.SimilarAnswerSearchOptions
}

func (f *fakeSearcher) SearchSimilarAnswers(_ context.Context, opts *store.SimilarAnswerSearchOptions) ([]*store.SimilarAnswer, error) {
	f.opts = opts
	return f.hits, f.err
}

type fakeScorer struct {
	result *ScoreResult
	err    error
	req    *ScoreRequest
	calls  int
}

func (f *fakeScorer) ScoreAnswer(_ context.Context, req *ScoreRequest) (*ScoreResult, error) {
	f.calls++
	f.req = req
	return f.result, f.err
}

const validAnswer = "We mapped the dependency graph, isolated the failing service, and rolled out a staged fix with the SRE team."

func uniformDetail(v float64) store.DetailScores {
	var d store.DetailScores
	for _, f := range DetailFields() {
		f.Set(&d, v)
	}
	return d
}

func hit(responseID string, sim float64, detail store.DetailScores) *store.SimilarAnswer {
	return &store.SimilarAnswer{
		Answer: &store.ScoredAnswer{
			CaseID:     "case-1",
			ResponseID: responseID,
			Question:   store.QuestionQ1,
			AnswerText: "a previously scored answer about incident handling and remediation",
			Scores:     store.ScoreSet{Detail: detail},
		},
		Similarity: sim,
	}
}

func TestPredict_NearDuplicateAdoptsTopCandidate(t *testing.T) {
	top := uniformDetail(3)
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{
		hit("r1", 0.92, top),
		hit("r2", 0.55, uniformDetail(1)),
	}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, nil, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)
	require.True(t, pred.IsValid)

	for _, f := range DetailFields() {
		v := f.GetPrediction(&pred.Detail)
		require.NotNil(t, v, "field %s", f.Spec().Name)
		assert.Equal(t, 3.0, *v)
	}
	// Details all at 3 on 1-4 put the grouped summaries at 1+(3-1)*4/3 ≈ 3.67,
	// quantized to the 0.5 grid.
	assert.Equal(t, 3.5, pred.Summary.Problem)
	assert.Equal(t, 3.5, pred.Summary.Solution)
	assert.Equal(t, 3.5, pred.Summary.Collaboration)
	assert.Greater(t, pred.Confidence, 0.7)
}

func TestPredict_ModeLookupTier(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{
		hit("r1", 0.75, uniformDetail(2)),
		hit("r2", 0.72, uniformDetail(3)),
		hit("r3", 0.70, uniformDetail(3)),
		hit("r4", 0.68, uniformDetail(3)),
	}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, nil, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	for _, f := range DetailFields() {
		v := f.GetPrediction(&pred.Detail)
		require.NotNil(t, v)
		assert.Equal(t, 3.0, *v, "mode value should win for %s", f.Spec().Name)
	}
}

func TestPredict_NoSimilarData(t *testing.T) {
	p := NewPredictor(&fakeSearcher{}, &fakeEmbedder{vector: []float32{1, 0}}, nil, DefaultOptions())

	_, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	var noData *NoSimilarDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, "case-1", noData.CaseID)
	assert.Equal(t, store.QuestionQ1, noData.Question)
}

func TestPredict_AllCandidatesBelowFloor(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{
		hit("r1", 0.42, uniformDetail(2)),
		hit("r2", 0.31, uniformDetail(3)),
	}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, nil, DefaultOptions())

	_, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	var lowSim *LowSimilarityError
	require.ErrorAs(t, err, &lowSim)
	assert.InDelta(t, 0.42, lowSim.MaxSimilarity, 1e-9)
	assert.InDelta(t, 0.5, lowSim.Floor, 1e-9)
}

func TestPredict_GateRejectsBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	p := NewPredictor(&fakeSearcher{}, embedder, nil, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, "too short")
	require.NoError(t, err)
	assert.False(t, pred.IsValid)
	assert.Equal(t, "answer too short", pred.RejectReason)
	assert.Zero(t, embedder.calls, "gate rejection must not spend an embedding call")

	// Every score pinned to its field minimum.
	assert.Equal(t, 1.0, pred.Summary.Problem)
	assert.Equal(t, 1.0, pred.Summary.Development)
	for _, f := range DetailFields() {
		v := f.GetPrediction(&pred.Detail)
		require.NotNil(t, v)
		assert.Equal(t, 1.0, *v)
	}
}

func TestPredict_EmbedderFailureIsFatal(t *testing.T) {
	p := NewPredictor(&fakeSearcher{}, &fakeEmbedder{err: errors.New("provider down")}, nil, DefaultOptions())

	_, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.Error(t, err)
}

func TestPredict_ScorerFailureDegradesToEmbeddingOnly(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{hit("r1", 0.9, uniformDetail(3))}}
	scorer := &fakeScorer{err: errors.New("scoring service timeout")}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, scorer, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)
	assert.Equal(t, 1, scorer.calls)
	assert.True(t, pred.IsValid)
	assert.Equal(t, pred.EmbeddingOnly.Summary, pred.Summary)
	assert.Equal(t, pred.EmbeddingOnly.Detail, pred.Detail)
}

func TestPredict_ScorerOverridesPerField(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{hit("r1", 0.9, uniformDetail(3))}}
	override := 1.0
	role := 4.25
	scorer := &fakeScorer{result: &ScoreResult{
		IsValidAnswer: true,
		Detail:        DetailPrediction{ProblemBackground: &override},
		Role:          &role,
		Explanation:   "the answer shows weak background framing",
	}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, scorer, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	// The overridden field moves, its siblings keep the embedding value.
	require.NotNil(t, pred.Detail.ProblemBackground)
	assert.Equal(t, 1.0, *pred.Detail.ProblemBackground)
	require.NotNil(t, pred.Detail.ProblemDefinition)
	assert.Equal(t, 3.0, *pred.Detail.ProblemDefinition)

	// Role is quantized onto the 0.1 grid; 4.25 rounds to 4.3.
	assert.InDelta(t, 4.3, pred.Summary.Role, 1e-9)

	// The audit snapshot keeps the pure embedding blend.
	require.NotNil(t, pred.EmbeddingOnly.Detail.ProblemBackground)
	assert.Equal(t, 3.0, *pred.EmbeddingOnly.Detail.ProblemBackground)

	// Summaries were recomposed from the merged details.
	assert.Less(t, pred.Summary.Problem, pred.EmbeddingOnly.Summary.Problem)
	assert.Contains(t, pred.Explanation, "weak background framing")
}

func TestPredict_ScorerFlagsInvalidAnswer(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{hit("r1", 0.9, uniformDetail(3))}}
	scorer := &fakeScorer{result: &ScoreResult{IsValidAnswer: false}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, scorer, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	assert.False(t, pred.IsValid)
	assert.NotEmpty(t, pred.RejectReason)
	assert.Equal(t, 1.0, pred.Summary.Problem)
	// The retrieval context survives for audit.
	assert.NotEmpty(t, pred.Examples)
	assert.Greater(t, pred.Confidence, 0.0)
	require.NotNil(t, pred.EmbeddingOnly.Detail.ProblemBackground)
	assert.Equal(t, 3.0, *pred.EmbeddingOnly.Detail.ProblemBackground)
}

func TestPredict_ScorerReceivesContext(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{
		hit("r1", 0.9, uniformDetail(3)),
		hit("r2", 0.7, uniformDetail(2)),
	}}
	scorer := &fakeScorer{result: &ScoreResult{IsValidAnswer: true}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, scorer, DefaultOptions())

	_, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	require.NotNil(t, scorer.req)
	assert.Equal(t, "case-1", scorer.req.CaseID)
	assert.Len(t, scorer.req.Examples, 2)
	assert.Len(t, scorer.req.Distributions, 15)
	require.NotNil(t, scorer.req.EmbeddingDetail.ProblemBackground)
}

func TestPredict_ExamplesCappedAndRanked(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{
		hit("r1", 0.95, uniformDetail(3)),
		hit("r2", 0.90, uniformDetail(3)),
		hit("r3", 0.85, uniformDetail(3)),
		hit("r4", 0.80, uniformDetail(3)),
	}}
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, nil, DefaultOptions())

	pred, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	require.Len(t, pred.Examples, 3)
	assert.Equal(t, "r1", pred.Examples[0].ResponseID)
	assert.Equal(t, "r3", pred.Examples[2].ResponseID)
	assert.NotEmpty(t, pred.Examples[0].Excerpt)
}

func TestPredict_SearchUsesConfiguredTopK(t *testing.T) {
	searcher := &fakeSearcher{hits: []*store.SimilarAnswer{hit("r1", 0.9, uniformDetail(2))}}
	opts := DefaultOptions()
	opts.TopK = 17
	p := NewPredictor(searcher, &fakeEmbedder{vector: []float32{1, 0}}, nil, opts)

	_, err := p.Predict(context.Background(), "case-1", store.QuestionQ1, validAnswer)
	require.NoError(t, err)

	require.NotNil(t, searcher.opts)
	assert.Equal(t, 17, searcher.opts.Limit)
	assert.Equal(t, "case-1", searcher.opts.CaseID)
	assert.Equal(t, store.QuestionQ1, searcher.opts.Question)
}

func TestConfidence(t *testing.T) {
	p := newTestPredictor()

	tests := []struct {
		name string
		sims []float64
		want float64
	}{
		// 0.6*max + 0.4*avg, *0.8 when max < 0.7
		{"single strong match", []float64{0.9}, 0.6*0.9 + 0.4*0.9},
		{"mixed matches", []float64{0.9, 0.5}, 0.6*0.9 + 0.4*0.7},
		{"penalized weak set", []float64{0.6, 0.5}, (0.6*0.6 + 0.4*0.55) * 0.8},
		{"boundary not penalized", []float64{0.7}, 0.6*0.7 + 0.4*0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := make([]*store.SimilarAnswer, len(tt.sims))
			for i, s := range tt.sims {
				candidates[i] = hit("r", s, store.DetailScores{})
			}
			got := p.confidence(candidates)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestComposeSummaries_StatisticalEstimates(t *testing.T) {
	p := newTestPredictor()

	detail := DetailPrediction{}
	for _, f := range DetailFields() {
		v := 4.0
		f.SetPrediction(&detail, &v)
	}
	summary := p.composeSummaries(&detail)

	// All details maxed: grouped summaries hit 5.
	assert.Equal(t, 5.0, summary.Problem)
	assert.Equal(t, 5.0, summary.Solution)
	assert.Equal(t, 5.0, summary.Collaboration)

	// role = (problem + collaboration) / 2
	assert.InDelta(t, 5.0, summary.Role, 1e-9)
	// leadership = 0.9*solution + 0.3 = 4.8
	assert.InDelta(t, 4.8, summary.Leadership, 1e-9)
	// development = 0.85*solution + 0.45 = 4.7
	assert.InDelta(t, 4.7, summary.Development, 1e-9)
}

func TestComposeSummaries_EmptyGroupCollapsesToMinimum(t *testing.T) {
	p := newTestPredictor()
	summary := p.composeSummaries(&DetailPrediction{})

	assert.Equal(t, 1.0, summary.Problem)
	assert.Equal(t, 1.0, summary.Solution)
	assert.Equal(t, 1.0, summary.Collaboration)
	assert.Equal(t, 1.0, summary.Role)
	// leadership = 0.9*1 + 0.3 = 1.2
	assert.InDelta(t, 1.2, summary.Leadership, 1e-9)
	// development = 0.85*1 + 0.45 = 1.3
	assert.InDelta(t, 1.3, summary.Development, 1e-9)
}

func TestBuildExplanation_LowSimilarityWarning(t *testing.T) {
	p := newTestPredictor()
	candidates := []*store.SimilarAnswer{hit("r1", 0.55, store.DetailScores{})}
	pred := &Prediction{Confidence: 0.4}

	text := p.buildExplanation(pred, candidates, nil)
	assert.True(t, strings.HasPrefix(text, lowSimilarityWarning))
	assert.Contains(t, text, "1 similar scored answers")

	strong := []*store.SimilarAnswer{hit("r1", 0.9, store.DetailScores{})}
	text = p.buildExplanation(pred, strong, nil)
	assert.False(t, strings.Contains(text, lowSimilarityWarning))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("  short  ", 10))
	long := strings.Repeat("x", 30)
	got := excerpt(long, 10)
	assert.Equal(t, 11, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
