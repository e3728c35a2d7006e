package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/scorelens/scoring"
)

const scorerSystemPrompt = `You are an assessment scoring assistant. You receive a candidate's free-text case answer together with similar previously scored answers and per-field value distributions. Score the answer on the given rubric.

Detail scores are integers from 1 to 4. Summary scores role, leadership and development are numbers from 1 to 5.

Respond with a single JSON object:
{
  "is_valid_answer": bool,
  "detail_scores": {"<field>": number, ...},
  "summary_scores": {"role": number, "leadership": number, "development": number},
  "explanation": "short reasoning in one or two sentences"
}

Set is_valid_answer to false only when the text is not a genuine attempt at an answer. Omit any detail field you cannot judge.`

// LLMScorer implements scoring.AnswerScorer with an OpenAI-compatible
// chat model.
type LLMScorer struct {
	client *openai.Client
	model  string
}

// NewLLMScorer creates a scorer from config. Returns nil (scorer
// disabled) when the config is not enabled.
func NewLLMScorer(cfg *ScorerConfig) *LLMScorer {
	if !cfg.Enabled {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &LLMScorer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// scorerResponse is the wire shape of the model's JSON reply.
type scorerResponse struct {
	IsValidAnswer bool               `json:"is_valid_answer"`
	DetailScores  map[string]float64 `json:"detail_scores"`
	SummaryScores map[string]float64 `json:"summary_scores"`
	Explanation   string             `json:"explanation"`
}

// ScoreAnswer calls the scoring model and converts its reply into the
// predictor's typed result. Unknown detail field names are skipped.
func (s *LLMScorer) ScoreAnswer(ctx context.Context, req *scoring.ScoreRequest) (*scoring.ScoreResult, error) {
	prompt, err := buildScorerPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scorerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "scoring chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty scoring response")
	}

	var parsed scorerResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse scoring response")
	}

	result := &scoring.ScoreResult{
		IsValidAnswer: parsed.IsValidAnswer,
		Explanation:   parsed.Explanation,
	}
	for name, value := range parsed.DetailScores {
		field, ok := scoring.DetailFieldByName(name)
		if !ok {
			continue
		}
		v := value
		field.SetPrediction(&result.Detail, &v)
	}
	if v, ok := parsed.SummaryScores["role"]; ok {
		result.Role = &v
	}
	if v, ok := parsed.SummaryScores["leadership"]; ok {
		result.Leadership = &v
	}
	if v, ok := parsed.SummaryScores["development"]; ok {
		result.Development = &v
	}
	return result, nil
}

// buildScorerPrompt renders the request context as a compact JSON payload
// preceded by the answer text.
func buildScorerPrompt(req *scoring.ScoreRequest) (string, error) {
	type exampleContext struct {
		Similarity float64 `json:"similarity"`
		Excerpt    string  `json:"excerpt"`
		Scores     any     `json:"scores"`
	}
	type distributionContext struct {
		Field  string              `json:"field"`
		Values []scoring.ValueStat `json:"values"`
	}

	// Cap the example context; the retrieval set can be large.
	const maxExamples = 5
	examples := make([]exampleContext, 0, maxExamples)
	for _, e := range req.Examples {
		if len(examples) == maxExamples {
			break
		}
		text := e.Answer.SourceText()
		if runes := []rune(text); len(runes) > 400 {
			text = string(runes[:400])
		}
		examples = append(examples, exampleContext{
			Similarity: e.Similarity,
			Excerpt:    text,
			Scores:     e.Answer.Scores,
		})
	}

	distributions := make([]distributionContext, 0, len(req.Distributions))
	for _, d := range req.Distributions {
		distributions = append(distributions, distributionContext{
			Field:  d.Field.Spec().Name,
			Values: d.Values,
		})
	}

	contextPayload, err := json.Marshal(map[string]any{
		"case_id":             req.CaseID,
		"question":            string(req.Question),
		"similar_examples":    examples,
		"field_distributions": distributions,
		"embedding_summary":   req.EmbeddingSummary,
		"embedding_detail":    req.EmbeddingDetail,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal scorer context")
	}

	return fmt.Sprintf("Answer to score:\n%s\n\nContext:\n%s", req.AnswerText, contextPayload), nil
}
