package assistant

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// Discovery is an optional capability a provider can implement to expose
// model listing and health checks.
type Discovery interface {
	ListModels(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Build constructs a Provider from a ProviderConfig.
func Build(cfg ProviderConfig, logger *log.Logger) (Provider, error) {
	cfg = withDefaults(cfg)
	switch cfg.Provider {
	case "webhook":
		p, err := NewWebhook(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.RPS, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		key := cfg.APIKey
		if key == "" {
			key = "ollama"
		}
		return openAICompat("ollama", cfg, key, logger)
	case "openrouter":
		key := strings.TrimSpace(cfg.APIKey)
		if key == "" {
			key = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
		}
		if key == "" {
			return nil, fmt.Errorf("openrouter: apiKey required (set in settings or OPENROUTER_API_KEY)")
		}
		return openAICompat("openrouter", cfg, key, logger)
	case "openai":
		return openAICompat("openai", cfg, cfg.APIKey, logger)
	case "local_stub":
		return NewLocalStub(), nil
	default:
		return nil, fmt.Errorf("unknown assistant provider: %s", cfg.Provider)
	}
}

func openAICompat(name string, cfg ProviderConfig, key string, logger *log.Logger) (Provider, error) {
	p, err := NewOpenAICompat(name, cfg.Endpoint, cfg.Model, key, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TryHealthCheck attempts a provider health check when supported.
func TryHealthCheck(ctx context.Context, p Provider) error {
	if d, ok := p.(Discovery); ok {
		return d.HealthCheck(ctx)
	}
	return nil
}

// TryListModels attempts to list models for a provider when supported.
func TryListModels(ctx context.Context, p Provider) ([]string, error) {
	if d, ok := p.(Discovery); ok {
		return d.ListModels(ctx)
	}
	return nil, fmt.Errorf("model listing not supported by this provider")
}

func normalize(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ollama":
		return "ollama"
	case "openrouter":
		return "openrouter"
	case "openai":
		return "openai"
	case "webhook", "n8n":
		return "webhook"
	case "localstub", "local_stub", "local", "stub", "offline":
		return "local_stub"
	case "":
		return ""
	default:
		return s
	}
}
