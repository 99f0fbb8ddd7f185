package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/lmsbot/internal/cache"
	"github.com/ziadkadry99/lmsbot/internal/config"
	"github.com/ziadkadry99/lmsbot/internal/db"
	"github.com/ziadkadry99/lmsbot/internal/embeddings"
	"github.com/ziadkadry99/lmsbot/internal/h5p"
	"github.com/ziadkadry99/lmsbot/internal/history"
	"github.com/ziadkadry99/lmsbot/internal/llm"
	"github.com/ziadkadry99/lmsbot/internal/orchestrator"
	"github.com/ziadkadry99/lmsbot/internal/prompt"
	"github.com/ziadkadry99/lmsbot/internal/retrieval"
	"github.com/ziadkadry99/lmsbot/internal/server"
	"github.com/ziadkadry99/lmsbot/internal/vectordb"
)

// app bundles the fully wired pipeline shared by the serve and chat commands.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *db.DB
	store     *vectordb.ChromemStore
	engine    *orchestrator.Engine
	machine   *h5p.Machine
	generator *h5p.Generator
	contents  *h5p.ContentStore
	clearers  []server.Clearer
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildApp loads the config and wires every pipeline component.
func buildApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := buildLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	embedder, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	cachedEmbedder := embeddings.NewCached(embedder, cfg.Cache.MaxEntries)

	store, err := vectordb.NewChromemStore(cachedEmbedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	vectorDir := filepath.Join(cfg.DataDir, "vectordb")
	if err := store.Load(context.Background(), vectorDir); err != nil {
		log.Warn("vector store empty, run `lmsbot index` to load course material",
			zap.String("dir", vectorDir), zap.Error(err))
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "lmsbot.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	gateway := createGateway(cfg, log)
	if gateway.Degraded() {
		log.Warn("no generation provider credentials found, answers will be extractive only")
	}

	retriever := retrieval.New(store, cfg.Retrieval.Timeout, cfg.Retrieval.ChunkBudget, log)
	builder := prompt.NewBuilder(cfg.Prompt.MaxChunks, cfg.Prompt.MaxTurns, cfg.Prompt.TurnBudget)
	responses := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	histStore := history.NewStore(database)

	engine := orchestrator.NewEngine(retriever, builder, gateway, responses, histStore, orchestrator.Options{
		MaxQueryLength:    cfg.Query.MaxLength,
		Model:             cfg.Model,
		TopK:              cfg.Retrieval.TopK,
		GenerationTimeout: cfg.GenerationTimeout,
	}, log)

	generator := h5p.NewGenerator(gateway, retriever, cfg.Model, log)
	contents := h5p.NewContentStore(database)
	machine := h5p.NewMachine(h5p.NewSessionStore(time.Hour), generator, contents, log)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        database,
		store:     store,
		engine:    engine,
		machine:   machine,
		generator: generator,
		contents:  contents,
		clearers:  []server.Clearer{responses, cachedEmbedder},
	}, nil
}

func createEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderGoogle:
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(apiKey, embeddings.GoogleModel(cfg.EmbeddingModel)), nil
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	}
}

// createGateway builds the provider gateway with the configured provider
// preferred. Credential-based promotion happens inside the gateway.
func createGateway(cfg *config.Config, log *zap.Logger) *llm.Gateway {
	limiter := llm.NewRateLimiter(cfg.RateLimitInterval)
	openaiKey := os.Getenv("OPENAI_API_KEY")
	googleKey := os.Getenv("GOOGLE_API_KEY")

	if cfg.Provider == config.ProviderGoogle {
		return llm.NewGateway(
			llm.NewGoogleProvider(googleKey, cfg.Model),
			llm.NewOpenAIProvider(openaiKey, cfg.FallbackModel),
			limiter, log)
	}
	return llm.NewGateway(
		llm.NewOpenAIProvider(openaiKey, cfg.Model),
		llm.NewGoogleProvider(googleKey, cfg.FallbackModel),
		limiter, log)
}
