package ai

import (
	"testing"
	"time"

	"github.com/hrygo/scorelens/internal/profile"
)

// TestNewConfigFromProfile_OpenAI tests the default OpenAI configuration.
func TestNewConfigFromProfile_OpenAI(t *testing.T) {
	prof := &profile.Profile{
		EmbeddingProvider:   "openai",
		EmbeddingModel:      "text-embedding-3-large",
		EmbeddingAPIKey:     "test-key",
		EmbeddingBaseURL:    "https://api.openai.com/v1",
		EmbeddingDimensions: 3072,
		EmbeddingRPS:        10,
		ScorerProvider:      "openai",
		ScorerModel:         "gpt-4o",
		ScorerAPIKey:        "scorer-key",
		ScorerTimeout:       30,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Embedding.Provider != "openai" {
		t.Errorf("Expected Embedding.Provider=openai, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("Expected Embedding.Model=text-embedding-3-large, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 3072 {
		t.Errorf("Expected Embedding.Dimensions=3072, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.RequestsPerSecond != 10 {
		t.Errorf("Expected Embedding.RequestsPerSecond=10, got %d", cfg.Embedding.RequestsPerSecond)
	}

	if !cfg.Scorer.Enabled {
		t.Errorf("Expected Scorer.Enabled=true when an API key is set")
	}
	if cfg.Scorer.Model != "gpt-4o" {
		t.Errorf("Expected Scorer.Model=gpt-4o, got %s", cfg.Scorer.Model)
	}
	if cfg.Scorer.Timeout != 30*time.Second {
		t.Errorf("Expected Scorer.Timeout=30s, got %s", cfg.Scorer.Timeout)
	}
}

// TestNewConfigFromProfile_ScorerDisabled tests that a missing scorer key
// disables the scoring service.
func TestNewConfigFromProfile_ScorerDisabled(t *testing.T) {
	prof := &profile.Profile{
		EmbeddingProvider:   "siliconflow",
		EmbeddingModel:      "BAAI/bge-m3",
		EmbeddingAPIKey:     "test-key",
		EmbeddingDimensions: 1024,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Scorer.Enabled {
		t.Errorf("Expected Scorer.Enabled=false without an API key")
	}
	if NewLLMScorer(&cfg.Scorer) != nil {
		t.Errorf("Expected NewLLMScorer to return nil when disabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Model: "text-embedding-3-large", Dimensions: 3072}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	cfg = &Config{Embedding: EmbeddingConfig{Dimensions: 3072}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected error for missing embedding model")
	}

	cfg = &Config{Embedding: EmbeddingConfig{Model: "m", Dimensions: 0}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected error for zero dimensions")
	}
}
