package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProviderConfig defines runtime-selectable assistant provider settings.
type ProviderConfig struct {
	Provider       string            `json:"provider"` // "webhook" | "openrouter" | "ollama" | "local_stub"
	Endpoint       string            `json:"endpoint"`
	Model          string            `json:"model"`
	APIKey         string            `json:"api_key"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
	RPS            float64           `json:"rps,omitempty"`
	Extra          map[string]string `json:"extra"`
}

// Settings is the persisted assistant settings state.
type Settings struct {
	Active ProviderConfig `json:"active"`
}

// DefaultSettings targets the hosted chat webhook.
func DefaultSettings() Settings {
	return Settings{
		Active: ProviderConfig{
			Provider:       "webhook",
			Endpoint:       DefaultWebhookURL,
			TimeoutSeconds: 30,
			RPS:            2,
			Extra:          map[string]string{},
		},
	}
}

// LoadSettings loads settings from the given path. If the file does not exist,
// DefaultSettings() are returned. Any read/parse error (other than not-exist)
// is returned.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return Settings{}, errors.New("empty settings path")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("stat settings file: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	s.Active = withDefaults(s.Active)
	return s, nil
}

func withDefaults(c ProviderConfig) ProviderConfig {
	c.Provider = normalize(c.Provider)
	if c.Provider == "" {
		c.Provider = "webhook"
	}
	if c.Endpoint == "" {
		switch c.Provider {
		case "webhook":
			c.Endpoint = DefaultWebhookURL
		case "ollama":
			c.Endpoint = OllamaEndpoint
		case "openrouter":
			c.Endpoint = OpenRouterEndpoint
		case "openai":
			c.Endpoint = "https://api.openai.com/v1"
		}
	}
	if c.Model == "" && c.Provider == "ollama" {
		c.Model = DefaultOllamaModel
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.Extra == nil {
		c.Extra = map[string]string{}
	}
	return c
}

// SaveSettings saves settings to the given path, creating parent directories if needed.
func SaveSettings(path string, s Settings) error {
	if path == "" {
		return errors.New("empty settings path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mk settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
