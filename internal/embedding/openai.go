package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
)

// OpenAIEmbedder generates embeddings with the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client     openai.Client
	ModelName  string
	Dimensions int64
	MaxRetries int
	Timeout    time.Duration
}

// NewOpenAIEmbedder creates an embedder. dimensions <= 0 keeps the model default.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions int) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing OpenAI API key")
	}
	opts := []ooption.RequestOption{ooption.WithAPIKey(strings.TrimSpace(apiKey))}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		ModelName:  model,
		Dimensions: int64(dimensions),
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}, nil
}

func (e *OpenAIEmbedder) Model() string { return e.ModelName }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return withRetry(ctx, e.MaxRetries, func() ([]float64, error) {
		params := openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.ModelName),
			Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		}
		if e.Dimensions > 0 {
			params.Dimensions = openai.Int(e.Dimensions)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		defer cancel()

		resp, err := e.client.Embeddings.New(callCtx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		return resp.Data[0].Embedding, nil
	})
}
