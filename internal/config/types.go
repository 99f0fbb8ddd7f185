package config

import "time"

// ProviderType identifies a generation or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
)

// Config is the top-level lmsbot configuration, corresponding to .lmsbot.yml.
type Config struct {
	// Provider is the preferred generation provider. If its credential is
	// missing at startup the other provider is promoted instead.
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// FallbackModel is used when the secondary provider handles a request.
	FallbackModel string `yaml:"fallback_model" koanf:"fallback_model"`

	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	DataDir        string   `yaml:"data_dir" koanf:"data_dir"`

	Query     QueryConfig     `yaml:"query" koanf:"query"`
	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Prompt    PromptConfig    `yaml:"prompt" koanf:"prompt"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`

	// GenerationTimeout bounds a single generation call.
	GenerationTimeout time.Duration `yaml:"generation_timeout" koanf:"generation_timeout"`
	// RateLimitInterval is the minimum spacing between outbound generation
	// calls, shared process-wide.
	RateLimitInterval time.Duration `yaml:"rate_limit_interval" koanf:"rate_limit_interval"`
}

// QueryConfig bounds inbound queries.
type QueryConfig struct {
	MaxLength int `yaml:"max_length" koanf:"max_length"`
}

// RetrievalConfig controls the vector search and its filter cascade.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" koanf:"top_k"`
	// Timeout bounds the whole cascade, not individual searches.
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
	// ChunkBudget is the per-chunk character cap applied before prompting.
	ChunkBudget int `yaml:"chunk_budget" koanf:"chunk_budget"`
}

// PromptConfig bounds the assembled prompt.
type PromptConfig struct {
	MaxChunks  int `yaml:"max_chunks" koanf:"max_chunks"`
	MaxTurns   int `yaml:"max_turns" koanf:"max_turns"`
	TurnBudget int `yaml:"turn_budget" koanf:"turn_budget"`
}

// CacheConfig controls the response and embedding caches.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" koanf:"ttl"`
	MaxEntries int           `yaml:"max_entries" koanf:"max_entries"`
}
