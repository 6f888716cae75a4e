package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings using Ollama API
type OllamaEmbedder struct {
	Client     *api.Client
	ModelName  string
	MaxRetries int
	Timeout    time.Duration
}

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back to OLLAMA_HOST.
func NewOllamaEmbedder(host string, model string) (*OllamaEmbedder, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaEmbedder{
		Client:     client,
		ModelName:  model,
		MaxRetries: 3,
		Timeout:    time.Second * 30,
	}, nil
}

func (e *OllamaEmbedder) Model() string { return e.ModelName }

// Embed generates an embedding for a text, retrying transient failures
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return withRetry(ctx, e.MaxRetries, func() ([]float64, error) {
		return e.createEmbedding(ctx, text)
	})
}

func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := api.EmbeddingRequest{
		Model:   e.ModelName,
		Prompt:  text,
		Options: map[string]any{},
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embeddings(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}

	return resp.Embedding, nil
}
