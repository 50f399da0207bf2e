package assistant

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Default endpoints for the OpenAI-compatible providers.
const (
	OpenRouterEndpoint = "https://openrouter.ai/api/v1"
	OllamaEndpoint     = "http://localhost:11434/v1"
	DefaultOllamaModel = "qwen3:0.6b"
)

// OpenAICompat talks to any OpenAI-compatible chat completion API
// (OpenRouter, Ollama's /v1 surface, OpenAI itself).
type OpenAICompat struct {
	name   string
	model  string
	client *openai.Client
	logger *log.Logger
}

// NewOpenAICompat creates a provider against baseURL. name is used in logs
// and audit entries.
func NewOpenAICompat(name, baseURL, model, apiKey string, logger *log.Logger) (*OpenAICompat, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%s: endpoint required", name)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &OpenAICompat{
		name:   name,
		model:  strings.TrimSpace(model),
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}, nil
}

func (o *OpenAICompat) Name() string { return o.name }

// Answer implements Provider. The report context travels as part of the
// system prompt.
func (o *OpenAICompat) Answer(ctx context.Context, q Question) (string, error) {
	if o.model == "" {
		return "", fmt.Errorf("%s: model not configured", o.name)
	}
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(q.Context)},
		{Role: openai.ChatMessageRoleUser, Content: q.Text},
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  msgs,
		MaxTokens: 700,
	})
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", o.name)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: empty answer", o.name)
	}
	o.logger.Printf("%s answered claim=%s tokens=%d", o.name, q.ClaimID, resp.Usage.TotalTokens)
	return content, nil
}

// ListModels returns the model ids the endpoint advertises.
func (o *OpenAICompat) ListModels(ctx context.Context) ([]string, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s list models: %w", o.name, err)
	}
	out := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if strings.TrimSpace(m.ID) != "" {
			out = append(out, m.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// HealthCheck performs a lightweight model listing.
func (o *OpenAICompat) HealthCheck(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%s health: %w", o.name, err)
	}
	return nil
}
