package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM completes prompts through the Anthropic Messages API
type AnthropicLLM struct {
	client      anthropic.Client
	Model       string
	Temperature float64
	MaxTokens   int64
}

// NewAnthropicLLM creates a client; baseURL is optional
func NewAnthropicLLM(apiKey, baseURL, model string) (*AnthropicLLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Anthropic API key")
	}
	opts := []aoption.RequestOption{aoption.WithAPIKey(strings.TrimSpace(apiKey))}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &AnthropicLLM{
		client:      anthropic.NewClient(opts...),
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   2048,
	}, nil
}

func (a *AnthropicLLM) Name() string { return "anthropic" }

func (a *AnthropicLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Model),
		MaxTokens:   a.MaxTokens,
		Temperature: anthropic.Float(a.Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(variant.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("empty response from model")
	}
	return b.String(), nil
}
