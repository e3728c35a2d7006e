package scoring

import (
	"strings"
	"unicode"
)

// gateVerdict is the outcome of the early quality gate.
type gateVerdict struct {
	Valid  bool
	Reason string
}

// checkAnswerQuality runs the fast heuristic gate before any external
// call: too-short answers and degenerate content (single repeated
// character, keyboard mashing on one rune) are rejected outright so no
// embedding-blend or scoring-service work is spent on them.
func checkAnswerQuality(answerText string, minRunes int) gateVerdict {
	trimmed := strings.TrimSpace(answerText)
	runes := []rune(trimmed)

	if len(runes) < minRunes {
		return gateVerdict{Valid: false, Reason: "answer too short"}
	}

	counts := map[rune]int{}
	total := 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		counts[r]++
		total++
	}

	if len(counts) < 2 {
		return gateVerdict{Valid: false, Reason: "degenerate content"}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if total > 0 && float64(maxCount)/float64(total) > 0.6 {
		return gateVerdict{Valid: false, Reason: "repetitive content"}
	}

	return gateVerdict{Valid: true}
}
