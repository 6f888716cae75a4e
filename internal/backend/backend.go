// Package backend builds the configured collaborators shared by the CLIs.
package backend

import (
	"context"
	"fmt"

	"question-paper-rag/internal/cache"
	"question-paper-rag/internal/config"
	"question-paper-rag/internal/database"
	"question-paper-rag/internal/embedding"
	"question-paper-rag/internal/llm"
	"question-paper-rag/internal/logger"
	"question-paper-rag/internal/models"
	"question-paper-rag/internal/qdrant"
	"question-paper-rag/internal/retrieval"
)

// VectorStore is a similarity backend that can also be written to
type VectorStore interface {
	retrieval.Searcher
	EnsureCollection(ctx context.Context, collection string, dim int) error
	Upsert(ctx context.Context, collection string, chunks []models.Chunk) error
	Close()
}

// OpenVectorStore connects to the Qdrant or pgvector backend
func OpenVectorStore(cfg *config.Config, log *logger.Logger) (VectorStore, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return qdrant.NewStore(log, qdrant.Config{
			URL:       cfg.QdrantURL,
			APIKey:    cfg.QdrantAPIKey,
			VectorDim: cfg.EmbedDimension,
			Timeout:   cfg.RetrievalTimeout,
		})
	case "pgvector":
		db, err := database.NewDB(cfg.PGConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// NewEmbedder creates the configured embedding client
func NewEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.EmbedProvider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbedModel)
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.EmbedDimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbedProvider)
	}
}

// NewCompleter creates the configured text model client
func NewCompleter(cfg *config.Config) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "ollama":
		c, err := llm.NewOllamaLLM(cfg.OllamaHost, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		c.Temperature = cfg.LLMTemperature
		c.MaxTokens = cfg.LLMMaxTokens
		return c, nil
	case "openai":
		c, err := llm.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		c.Temperature = cfg.LLMTemperature
		c.MaxTokens = int64(cfg.LLMMaxTokens)
		return c, nil
	case "anthropic":
		c, err := llm.NewAnthropicLLM(cfg.AnthropicAPIKey, "", cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		c.Temperature = cfg.LLMTemperature
		c.MaxTokens = int64(cfg.LLMMaxTokens)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// OpenCache opens the configured question cache. It returns nil for "none".
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, nil
	case "memory":
		return cache.NewMemoryStore(), nil
	case "sqlite":
		return cache.OpenSQLite(cfg.CachePath)
	case "redis":
		return cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
