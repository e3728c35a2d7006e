package profile

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server and workers.
type Profile struct {
	// Server
	Mode    string // demo, dev, prod
	Addr    string
	Port    int
	Version string

	// Database (PostgreSQL with pgvector)
	DSN string

	// Embedding configuration (OpenAI-compatible protocol)
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int
	EmbeddingRPS        int // client-side rate limit, requests per second

	// Scorer LLM configuration (optional; statistical fallback when unset)
	ScorerProvider string
	ScorerModel    string
	ScorerAPIKey   string
	ScorerBaseURL  string
	ScorerTimeout  int // seconds

	// Worker tunables
	JobConcurrency int
	JobMaxRetries  int
}

// Provider default configurations for OpenAI-compatible endpoints.
// Used when the corresponding BASE_URL is not explicitly set.
var providerDefaults = map[string]struct {
	BaseURL        string
	EmbeddingModel string
	ScorerModel    string
}{
	"openai": {
		BaseURL:        "https://api.openai.com/v1",
		EmbeddingModel: "text-embedding-3-large",
		ScorerModel:    "gpt-4o",
	},
	"siliconflow": {
		BaseURL:        "https://api.siliconflow.cn/v1",
		EmbeddingModel: "BAAI/bge-m3",
		ScorerModel:    "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL:        "https://dashscope.aliyuncs.com/compatible-mode/v1",
		EmbeddingModel: "text-embedding-v3",
		ScorerModel:    "qwen-max-latest",
	},
	"ollama": {
		BaseURL:        "http://localhost:11434/v1",
		EmbeddingModel: "bge-m3",
		ScorerModel:    "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsScorerEnabled returns true if the external scoring LLM is configured.
func (p *Profile) IsScorerEnabled() bool {
	return p.ScorerAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("SCORELENS_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingAPIKey = getEnvOrDefault("SCORELENS_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("SCORELENS_EMBEDDING_BASE_URL", "")
	p.EmbeddingModel = getEnvOrDefault("SCORELENS_EMBEDDING_MODEL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("SCORELENS_EMBEDDING_DIMENSIONS", 3072)
	p.EmbeddingRPS = getEnvOrDefaultInt("SCORELENS_EMBEDDING_RPS", 10)

	// Scorer LLM configuration
	p.ScorerProvider = getEnvOrDefault("SCORELENS_SCORER_PROVIDER", "openai")
	p.ScorerAPIKey = getEnvOrDefault("SCORELENS_SCORER_API_KEY", "")
	p.ScorerBaseURL = getEnvOrDefault("SCORELENS_SCORER_BASE_URL", "")
	p.ScorerModel = getEnvOrDefault("SCORELENS_SCORER_MODEL", "")
	p.ScorerTimeout = getEnvOrDefaultInt("SCORELENS_SCORER_TIMEOUT_SECONDS", 30)

	// Worker tunables
	p.JobConcurrency = getEnvOrDefaultInt("SCORELENS_JOB_CONCURRENCY", 15)
	p.JobMaxRetries = getEnvOrDefaultInt("SCORELENS_JOB_MAX_RETRIES", 3)

	p.applyProviderDefaults()
}

func (p *Profile) applyProviderDefaults() {
	if defaults, ok := providerDefaults[p.EmbeddingProvider]; ok {
		if p.EmbeddingBaseURL == "" {
			p.EmbeddingBaseURL = defaults.BaseURL
		}
		if p.EmbeddingModel == "" {
			p.EmbeddingModel = defaults.EmbeddingModel
		}
	} else {
		slog.Warn("Unknown embedding provider", "provider", p.EmbeddingProvider)
	}
	if defaults, ok := providerDefaults[p.ScorerProvider]; ok {
		if p.ScorerBaseURL == "" {
			p.ScorerBaseURL = defaults.BaseURL
		}
		if p.ScorerModel == "" {
			p.ScorerModel = defaults.ScorerModel
		}
	}
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.DSN == "" {
		return errors.New("database DSN is required")
	}
	if p.EmbeddingAPIKey == "" && p.EmbeddingProvider != "ollama" {
		return errors.Errorf("embedding API key is required for provider %q", p.EmbeddingProvider)
	}
	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions: %d", p.EmbeddingDimensions)
	}
	if p.JobConcurrency <= 0 {
		p.JobConcurrency = 15
	}
	if p.JobMaxRetries <= 0 {
		p.JobMaxRetries = 3
	}
	return nil
}
