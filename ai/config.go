// Package ai provides the external AI capabilities of the engine: the
// embedding service and the optional LLM-backed answer scorer, both over
// the OpenAI-compatible protocol.
package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/internal/profile"
)

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	// RequestsPerSecond caps the client-side call rate; 0 disables the
	// limiter.
	RequestsPerSecond int
}

// ScorerConfig represents the scoring LLM configuration.
type ScorerConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Enabled  bool
}

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	Scorer    ScorerConfig
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:          p.EmbeddingProvider,
			Model:             p.EmbeddingModel,
			APIKey:            p.EmbeddingAPIKey,
			BaseURL:           p.EmbeddingBaseURL,
			Dimensions:        p.EmbeddingDimensions,
			RequestsPerSecond: p.EmbeddingRPS,
		},
		Scorer: ScorerConfig{
			Provider: p.ScorerProvider,
			Model:    p.ScorerModel,
			APIKey:   p.ScorerAPIKey,
			BaseURL:  p.ScorerBaseURL,
			Timeout:  time.Duration(p.ScorerTimeout) * time.Second,
			Enabled:  p.IsScorerEnabled(),
		},
	}
}

// Validate checks the embedding configuration; the scorer is optional.
func (c *Config) Validate() error {
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions: %d", c.Embedding.Dimensions)
	}
	return nil
}
