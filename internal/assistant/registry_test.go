package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newOpenAITestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			http.Error(w, "bad messages", http.StatusBadRequest)
			return
		}
		if !strings.Contains(body.Messages[0].Content, "# CLAIM REPORT") {
			http.Error(w, "missing report context", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   body.Model,
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": "Answer for " + body.Messages[1].Content},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"z-model","object":"model"},{"id":"a-model","object":"model"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompatAnswer(t *testing.T) {
	srv := newOpenAITestServer(t)
	p, err := Build(ProviderConfig{Provider: "openrouter", Endpoint: srv.URL, Model: "test/model", APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := p.Answer(context.Background(), Question{Text: "risk?", ClaimID: "1", Context: "# CLAIM REPORT: x"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "Answer for risk?" {
		t.Fatalf("answer = %q", got)
	}

	models, err := TryListModels(context.Background(), p)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "a-model" {
		t.Fatalf("models = %v", models)
	}
	if err := TryHealthCheck(context.Background(), p); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOpenAICompatRequiresModel(t *testing.T) {
	srv := newOpenAITestServer(t)
	p, err := Build(ProviderConfig{Provider: "openai", Endpoint: srv.URL, APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := p.Answer(context.Background(), Question{Text: "q"}); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestBuildProviders(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	cases := []struct {
		cfg     ProviderConfig
		name    string
		wantErr bool
	}{
		{ProviderConfig{}, "webhook", false},
		{ProviderConfig{Provider: "Webhook"}, "webhook", false},
		{ProviderConfig{Provider: "LOCAL"}, "local_stub", false},
		{ProviderConfig{Provider: "ollama"}, "ollama", false},
		{ProviderConfig{Provider: "openrouter"}, "", true},
		{ProviderConfig{Provider: "carrier-pigeon"}, "", true},
	}
	for _, tc := range cases {
		p, err := Build(tc.cfg, nil)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Build(%+v): expected error", tc.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Build(%+v): %v", tc.cfg, err)
		}
		if p.Name() != tc.name {
			t.Fatalf("Build(%+v) name = %q, want %q", tc.cfg, p.Name(), tc.name)
		}
	}

	if _, err := TryListModels(context.Background(), NewLocalStub()); err == nil {
		t.Fatalf("expected listing to be unsupported for the stub")
	}
}

func TestSettingsLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "assistant_settings.json")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings missing file: %v", err)
	}
	if s.Active.Provider != "webhook" || s.Active.Endpoint != DefaultWebhookURL {
		t.Fatalf("defaults = %+v", s.Active)
	}

	s.Active = ProviderConfig{Provider: "ollama"}
	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.Active.Endpoint != OllamaEndpoint || loaded.Active.Model != DefaultOllamaModel {
		t.Fatalf("ollama defaults not applied: %+v", loaded.Active)
	}
	if loaded.Active.Extra == nil {
		t.Fatalf("Extra should be initialised")
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadSettings(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
