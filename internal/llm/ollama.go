package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaLLM completes prompts with a local Ollama model
type OllamaLLM struct {
	Client      *api.Client
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to OLLAMA_HOST.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaLLM{
		Client:      client,
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   2048,
	}, nil
}

func (o *OllamaLLM) Name() string { return "ollama" }

// Complete generates a JSON reply from the model
func (o *OllamaLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		System: system,
		Prompt: prompt,
		Format: json.RawMessage(`"json"`),
		Options: map[string]interface{}{
			"temperature": o.Temperature,
			"num_predict": o.MaxTokens,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}
