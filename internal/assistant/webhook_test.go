package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newWebhookTestServer(t *testing.T, contentType, body string, status int) (*httptest.Server, *webhookRequest) {
	t.Helper()
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			http.Error(w, "content type", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func ask(t *testing.T, url string) (string, error) {
	t.Helper()
	wh, err := NewWebhook(url, 2*time.Second, 0, nil)
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}
	return wh.Answer(context.Background(), Question{
		Text:      "What is the billing total?",
		ClaimID:   "2",
		Timestamp: time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC),
	})
}

func TestWebhookSendsQuestionPayload(t *testing.T) {
	srv, got := newWebhookTestServer(t, "text/plain", "ok", http.StatusOK)
	if _, err := ask(t, srv.URL); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.Question != "What is the billing total?" {
		t.Fatalf("question = %q", got.Question)
	}
	if got.ClaimID != "2" {
		t.Fatalf("claimId = %q", got.ClaimID)
	}
	if got.Timestamp != "2025-03-04T05:06:07.890Z" {
		t.Fatalf("timestamp = %q", got.Timestamp)
	}
}

func TestWebhookResponseShapes(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"answer field", "application/json", `{"answer":"A","message":"M"}`, "A"},
		{"message field", "application/json; charset=utf-8", `{"message":"M","response":"R"}`, "M"},
		{"response field", "application/json", `{"response":"R"}`, "R"},
		{"empty answer skipped", "application/json", `{"answer":"","response":"R"}`, "R"},
		{"non-string answer", "application/json", `{"answer":{"total":41501.77}}`, `{"total":41501.77}`},
		{"whole object", "application/json", `{"output":"x"}`, `{"output":"x"}`},
		{"array", "application/json", `["a","b"]`, `["a","b"]`},
		{"plain text", "text/plain", "Total billed is $41,501.77", "Total billed is $41,501.77"},
		{"no content type", "", "raw body", "raw body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newWebhookTestServer(t, tc.contentType, tc.body, http.StatusOK)
			got, err := ask(t, srv.URL)
			if err != nil {
				t.Fatalf("Answer: %v", err)
			}
			if got != tc.want {
				t.Fatalf("answer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWebhookFailures(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{"server error", "text/plain", "boom", http.StatusInternalServerError},
		{"not found", "application/json", `{"answer":"x"}`, http.StatusNotFound},
		{"malformed json", "application/json", `{"answer":`, http.StatusOK},
		{"null json", "application/json", `null`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newWebhookTestServer(t, tc.contentType, tc.body, tc.status)
			if _, err := ask(t, srv.URL); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBridgeReturnsApologyOnFailure(t *testing.T) {
	srv, _ := newWebhookTestServer(t, "text/plain", "boom", http.StatusBadGateway)
	wh, err := NewWebhook(srv.URL, time.Second, 0, nil)
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}
	b := NewBridge(wh, nil)

	if got := b.Ask(context.Background(), Question{Text: "hello", ClaimID: "1"}); got != Apology {
		t.Fatalf("Ask = %q, want apology", got)
	}

	// Unreachable endpoint.
	srv.Close()
	r := b.Reply(context.Background(), Question{Text: "hello", ClaimID: "1"})
	if !r.Failed || r.Text != Apology {
		t.Fatalf("Reply = %+v, want failed apology", r)
	}
}

func TestWebhookRespectsContextCancel(t *testing.T) {
	srv, _ := newWebhookTestServer(t, "text/plain", "ok", http.StatusOK)
	wh, err := NewWebhook(srv.URL, time.Second, 0.001, nil)
	if err != nil {
		t.Fatalf("NewWebhook: %v", err)
	}
	// First call consumes the only token.
	if _, err := wh.Answer(context.Background(), Question{Text: "one"}); err != nil {
		t.Fatalf("first Answer: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := wh.Answer(ctx, Question{Text: "two"}); err == nil {
		t.Fatalf("expected rate limit wait to fail")
	}
}

func TestNewWebhookRequiresEndpoint(t *testing.T) {
	if _, err := NewWebhook("  ", time.Second, 1, nil); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
