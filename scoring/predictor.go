// Package scoring implements the hybrid score predictor: it embeds an
// incoming answer, retrieves similar previously scored answers, and blends
// their detail and summary scores through a tiered decision policy into a
// confidence-annotated, quantized prediction.
package scoring

import (
	"context"
	"log/slog"

	"github.com/hrygo/scorelens/store"
)

// Example is one similar scored answer surfaced with a prediction.
type Example struct {
	ResponseID string              `json:"response_id"`
	Similarity float64             `json:"similarity"`
	Excerpt    string              `json:"excerpt"`
	Summary    store.SummaryScores `json:"summary"`
	Detail     store.DetailScores  `json:"detail"`
}

// Snapshot is a summary+detail score pair.
type Snapshot struct {
	Summary store.SummaryScores `json:"summary"`
	Detail  DetailPrediction    `json:"detail"`
}

// Prediction is the request-scoped output of Predict. EmbeddingOnly keeps
// the pure retrieval-blend scores for audit even when the external scorer
// overrides them.
type Prediction struct {
	Summary       store.SummaryScores `json:"summary"`
	Detail        DetailPrediction    `json:"detail"`
	EmbeddingOnly Snapshot            `json:"embedding_only"`
	Confidence    float64             `json:"confidence"`
	Examples      []Example           `json:"examples"`
	Explanation   string              `json:"explanation"`
	IsValid       bool                `json:"is_valid"`
	RejectReason  string              `json:"reject_reason,omitempty"`
}

// Predictor is the request-time scoring entry point. It is stateless per
// invocation and safe for concurrent use.
type Predictor struct {
	searcher SimilarSearcher
	embedder Embedder
	scorer   AnswerScorer // nil when the external scoring service is disabled
	opts     Options
}

// NewPredictor creates a predictor. A nil scorer disables the external
// scoring call and keeps the statistical estimate path.
func NewPredictor(searcher SimilarSearcher, embedder Embedder, scorer AnswerScorer, opts Options) *Predictor {
	if opts.TopK <= 0 {
		opts = DefaultOptions()
	}
	return &Predictor{
		searcher: searcher,
		embedder: embedder,
		scorer:   scorer,
		opts:     opts,
	}
}

// Predict scores answerText against the stored corpus for the case and
// question. It fails with *NoSimilarDataError when the scope has no
// embeddings and *LowSimilarityError when every candidate falls below the
// similarity floor.
func (p *Predictor) Predict(ctx context.Context, caseID string, question store.Question, answerText string) (*Prediction, error) {
	// The quality gate runs before any external call so obviously
	// unscorable input costs neither an embedding nor a scoring request.
	if verdict := checkAnswerQuality(answerText, p.opts.MinAnswerRunes); !verdict.Valid {
		return p.rejectedPrediction(verdict.Reason), nil
	}

	vector, err := p.embedder.Embed(ctx, answerText)
	if err != nil {
		return nil, err
	}

	hits, err := p.searcher.SearchSimilarAnswers(ctx, &store.SimilarAnswerSearchOptions{
		Vector:   vector,
		CaseID:   caseID,
		Question: question,
		Limit:    p.opts.TopK,
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, &NoSimilarDataError{CaseID: caseID, Question: question}
	}

	candidates, maxSim := filterBySimilarity(hits, p.opts.MinSimilarity)
	if len(candidates) == 0 {
		return nil, &LowSimilarityError{MaxSimilarity: maxSim, Floor: p.opts.MinSimilarity}
	}

	embDetail := p.blendDetailScores(candidates)
	embSummary := p.composeSummaries(&embDetail)
	confidence := p.confidence(candidates)

	pred := &Prediction{
		Summary: embSummary,
		Detail:  embDetail,
		EmbeddingOnly: Snapshot{
			Summary: embSummary,
			Detail:  embDetail,
		},
		Confidence: confidence,
		Examples:   p.topExamples(candidates),
		IsValid:    true,
	}

	scorerResult := p.callScorer(ctx, caseID, question, answerText, candidates, pred)
	if scorerResult != nil {
		if !scorerResult.IsValidAnswer {
			rejected := p.rejectedPrediction("flagged invalid by scoring service")
			rejected.EmbeddingOnly = pred.EmbeddingOnly
			rejected.Examples = pred.Examples
			rejected.Confidence = pred.Confidence
			return rejected, nil
		}
		p.applyScorerResult(pred, scorerResult)
	}

	pred.Explanation = p.buildExplanation(pred, candidates, scorerResult)
	return pred, nil
}

// filterBySimilarity drops hits below the floor and reports the best
// similarity seen among all hits.
func filterBySimilarity(hits []*store.SimilarAnswer, floor float64) ([]*store.SimilarAnswer, float64) {
	kept := make([]*store.SimilarAnswer, 0, len(hits))
	maxSim := 0.0
	for _, h := range hits {
		if h.Similarity > maxSim {
			maxSim = h.Similarity
		}
		if h.Similarity >= floor {
			kept = append(kept, h)
		}
	}
	return kept, maxSim
}

// blendDetailScores runs the tiered policy for each of the fifteen detail
// fields and normalizes the results to each field's quantization contract.
func (p *Predictor) blendDetailScores(candidates []*store.SimilarAnswer) DetailPrediction {
	var out DetailPrediction
	for _, field := range DetailFields() {
		fieldCands := make([]fieldCandidate, 0, len(candidates))
		for _, c := range candidates {
			fieldCands = append(fieldCands, fieldCandidate{
				Similarity: c.Similarity,
				Value:      field.Get(&c.Answer.Scores.Detail),
			})
		}
		if v := p.predictField(fieldCands); v != nil {
			normalized := field.Spec().Normalize(*v)
			field.SetPrediction(&out, &normalized)
		}
	}
	return out
}

// composeSummaries derives problem/solution/collaboration from their
// detail groups (details live on 1-4, summaries on 1-max, rescaled
// linearly) and fills role/leadership/development with the statistical
// estimates used when the external scorer is disabled or unavailable.
func (p *Predictor) composeSummaries(detail *DetailPrediction) store.SummaryScores {
	var summary store.SummaryScores
	summary.Problem = composeGroupSummary(detail, SummaryProblem)
	summary.Solution = composeGroupSummary(detail, SummarySolution)
	summary.Collaboration = composeGroupSummary(detail, SummaryCollaboration)

	// No detail basis exists for these three; estimate from the already
	// computed summaries.
	roleSpec := SummaryRole.Spec()
	summary.Role = roleSpec.Normalize((summary.Problem + summary.Collaboration) / 2)
	summary.Leadership = SummaryLeadership.Spec().Normalize(0.9*summary.Solution + 0.3)
	summary.Development = SummaryDevelopment.Spec().Normalize(0.85*summary.Solution + 0.45)
	return summary
}

// composeGroupSummary averages a group's predicted details and rescales
// the 1-4 mean onto the summary's 1-max range before quantizing. A group
// with no predicted details collapses to the summary minimum.
func composeGroupSummary(detail *DetailPrediction, group SummaryField) float64 {
	spec := group.Spec()
	var sum float64
	var n int
	for _, field := range DetailFields() {
		if field.Group() != group {
			continue
		}
		if v := field.GetPrediction(detail); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return spec.Min
	}
	mean := sum / float64(n)
	scaled := 1 + (mean-1)*(spec.Max-1)/3
	return spec.Normalize(scaled)
}

// confidence blends the best and average similarity of the filtered
// candidate set and penalizes the result when no candidate is a close
// match.
func (p *Predictor) confidence(candidates []*store.SimilarAnswer) float64 {
	maxSim, sum := 0.0, 0.0
	for _, c := range candidates {
		if c.Similarity > maxSim {
			maxSim = c.Similarity
		}
		sum += c.Similarity
	}
	avg := sum / float64(len(candidates))

	confidence := 0.6*maxSim + 0.4*avg
	if maxSim < p.opts.HighConfidenceSimilarity {
		confidence *= p.opts.LowConfidencePenalty
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// callScorer invokes the external scoring service under a hard timeout.
// Any failure degrades to the embedding-only result; it is never fatal.
func (p *Predictor) callScorer(ctx context.Context, caseID string, question store.Question, answerText string, candidates []*store.SimilarAnswer, pred *Prediction) *ScoreResult {
	if p.scorer == nil {
		return nil
	}

	scorerCtx, cancel := context.WithTimeout(ctx, p.opts.ScorerTimeout)
	defer cancel()

	result, err := p.scorer.ScoreAnswer(scorerCtx, &ScoreRequest{
		CaseID:           caseID,
		Question:         question,
		AnswerText:       answerText,
		Examples:         candidates,
		Distributions:    p.fieldDistributions(candidates),
		EmbeddingSummary: pred.Summary,
		EmbeddingDetail:  pred.Detail,
	})
	if err != nil {
		slog.Warn("scoring service unavailable, using embedding-only scores",
			"case_id", caseID,
			"question", question,
			"error", err,
		)
		return nil
	}
	return result
}

// applyScorerResult lets the service's detail scores supersede the
// embedding blend (per-field, embedding values as fallback) and its
// role/leadership/development supersede the statistical estimates.
func (p *Predictor) applyScorerResult(pred *Prediction, result *ScoreResult) {
	for _, field := range DetailFields() {
		if v := field.GetPrediction(&result.Detail); v != nil {
			normalized := field.Spec().Normalize(*v)
			field.SetPrediction(&pred.Detail, &normalized)
		}
	}
	pred.Summary = p.composeSummaries(&pred.Detail)

	if result.Role != nil {
		pred.Summary.Role = SummaryRole.Spec().Normalize(*result.Role)
	}
	if result.Leadership != nil {
		pred.Summary.Leadership = SummaryLeadership.Spec().Normalize(*result.Leadership)
	}
	if result.Development != nil {
		pred.Summary.Development = SummaryDevelopment.Spec().Normalize(*result.Development)
	}
}

// fieldDistributions summarizes the candidates' value spread per detail
// field for the scoring service's context.
func (p *Predictor) fieldDistributions(candidates []*store.SimilarAnswer) []FieldDistribution {
	distributions := make([]FieldDistribution, 0, int(numDetailFields))
	for _, field := range DetailFields() {
		fieldCands := make([]fieldCandidate, 0, len(candidates))
		for _, c := range candidates {
			fieldCands = append(fieldCands, fieldCandidate{
				Similarity: c.Similarity,
				Value:      field.Get(&c.Answer.Scores.Detail),
			})
		}
		groups := groupByValue(fieldCands)
		values := make([]ValueStat, 0, len(groups))
		for _, g := range groups {
			values = append(values, ValueStat{
				Value:          g.Value,
				Count:          g.Count,
				MeanSimilarity: g.SumSim / float64(g.Count),
			})
		}
		distributions = append(distributions, FieldDistribution{Field: field, Values: values})
	}
	return distributions
}

// rejectedPrediction forces every score to its field minimum.
func (p *Predictor) rejectedPrediction(reason string) *Prediction {
	var detail DetailPrediction
	for _, field := range DetailFields() {
		minVal := field.Spec().Min
		field.SetPrediction(&detail, &minVal)
	}
	summary := store.SummaryScores{
		Problem:       SummaryProblem.Spec().Min,
		Solution:      SummarySolution.Spec().Min,
		Role:          SummaryRole.Spec().Min,
		Leadership:    SummaryLeadership.Spec().Min,
		Collaboration: SummaryCollaboration.Spec().Min,
		Development:   SummaryDevelopment.Spec().Min,
	}
	return &Prediction{
		Summary:       summary,
		Detail:        detail,
		EmbeddingOnly: Snapshot{Summary: summary, Detail: detail},
		IsValid:       false,
		RejectReason:  reason,
		Explanation:   invalidAnswerWarning + " " + reason,
	}
}

// topExamples returns the most similar candidates with a short excerpt.
func (p *Predictor) topExamples(candidates []*store.SimilarAnswer) []Example {
	n := p.opts.MaxExamples
	if n > len(candidates) {
		n = len(candidates)
	}
	examples := make([]Example, 0, n)
	for _, c := range candidates[:n] {
		examples = append(examples, Example{
			ResponseID: c.Answer.ResponseID,
			Similarity: c.Similarity,
			Excerpt:    excerpt(c.Answer.SourceText(), 200),
			Summary:    c.Answer.Scores.Summary,
			Detail:     c.Answer.Scores.Detail,
		})
	}
	return examples
}
