package scoring

import (
	"fmt"
	"strings"

	"github.com/hrygo/scorelens/store"
)

const (
	lowSimilarityWarning = "Warning: no close match was found in the scored corpus; the prediction is based on loosely similar answers."
	invalidAnswerWarning = "Warning: the answer was judged unscorable and all scores were set to the minimum."
)

// buildExplanation assembles the human-readable explanation: an optional
// low-similarity warning, a retrieval summary, and the scoring service's
// own explanation when one was produced.
func (p *Predictor) buildExplanation(pred *Prediction, candidates []*store.SimilarAnswer, scorerResult *ScoreResult) string {
	maxSim := 0.0
	for _, c := range candidates {
		if c.Similarity > maxSim {
			maxSim = c.Similarity
		}
	}

	var b strings.Builder
	if maxSim < p.opts.HighConfidenceSimilarity {
		b.WriteString(lowSimilarityWarning)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "Scores derived from %d similar scored answers (best similarity %.2f, confidence %.2f).",
		len(candidates), maxSim, pred.Confidence)

	if scorerResult != nil && scorerResult.Explanation != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(scorerResult.Explanation))
	}
	return b.String()
}

// excerpt returns the first maxRunes runes of text with an ellipsis when
// truncated.
func excerpt(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes]) + "…"
}
