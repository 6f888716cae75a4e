package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
	oresponses "github.com/openai/openai-go/responses"
	oshared "github.com/openai/openai-go/shared"
)

// OpenAILLM completes prompts through the OpenAI Responses API
type OpenAILLM struct {
	client      openai.Client
	Model       string
	Temperature float64
	MaxTokens   int64
}

// NewOpenAILLM creates a client; baseURL may point at any compatible endpoint
func NewOpenAILLM(apiKey, baseURL, model string) (*OpenAILLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing OpenAI API key")
	}
	opts := []ooption.RequestOption{ooption.WithAPIKey(strings.TrimSpace(apiKey))}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &OpenAILLM{
		client:      openai.NewClient(opts...),
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   2048,
	}, nil
}

func (o *OpenAILLM) Name() string { return "openai" }

func (o *OpenAILLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := oresponses.ResponseNewParams{
		Model:           oshared.ResponsesModel(o.Model),
		MaxOutputTokens: openai.Int(o.MaxTokens),
		Temperature:     openai.Float(o.Temperature),
		Instructions:    openai.String(system),
	}
	obj := oshared.NewResponseFormatJSONObjectParam()
	params.Text = oresponses.ResponseTextConfigParam{
		Format: oresponses.ResponseFormatTextConfigUnionParam{OfJSONObject: &obj},
	}
	params.Input = oresponses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	text := resp.OutputText()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}
