package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		FallbackModel:     "gemini-2.0-flash",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Port:              5000,
		AllowedOrigins:    []string{"http://localhost:3000"},
		DataDir:           "data",
		Query: QueryConfig{
			MaxLength: 500,
		},
		Retrieval: RetrievalConfig{
			TopK:        5,
			Timeout:     10 * time.Second,
			ChunkBudget: 1000,
		},
		Prompt: PromptConfig{
			MaxChunks:  1,
			MaxTurns:   2,
			TurnBudget: 500,
		},
		Cache: CacheConfig{
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
		},
		GenerationTimeout: 30 * time.Second,
		RateLimitInterval: time.Second,
	}
}
