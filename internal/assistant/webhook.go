package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultWebhookURL is the hosted chat workflow the dashboard posts to.
const DefaultWebhookURL = "https://einavmimram.app.n8n.cloud/webhook/1a7dc023-7661-4e0f-9f48-e230feccb25b"

const maxWebhookBody = 1 << 20

// Webhook posts questions to an external HTTP endpoint and relays whatever
// it answers.
type Webhook struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewWebhook creates a webhook provider. rps <= 0 disables client-side rate
// limiting.
func NewWebhook(endpoint string, timeout time.Duration, rps float64, logger *log.Logger) (*Webhook, error) {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		return nil, fmt.Errorf("webhook: endpoint required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Webhook{
		endpoint:   ep,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    lim,
		logger:     logger,
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

type webhookRequest struct {
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
	ClaimID   string `json:"claimId"`
}

// isoMillis matches the millisecond UTC form browsers produce.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Answer implements Provider.
func (w *Webhook) Answer(ctx context.Context, q Question) (string, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("webhook: rate limit wait: %w", err)
	}

	ts := q.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	data, err := json.Marshal(webhookRequest{
		Question:  q.Text,
		Timestamp: ts.UTC().Format(isoMillis),
		ClaimID:   q.ClaimID,
	})
	if err != nil {
		return "", fmt.Errorf("webhook: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook: request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		return "", fmt.Errorf("webhook: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("webhook: status %d: %s", resp.StatusCode, truncateBody(string(body), 400))
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		return extractAnswer(body)
	}
	return string(body), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// extractAnswer takes the first truthy answer, message or response field
// of a JSON object, or stringifies the whole document.
func extractAnswer(body []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("webhook: decode response: %w", err)
	}
	if doc == nil {
		return "", fmt.Errorf("webhook: null response")
	}
	if obj, ok := doc.(map[string]interface{}); ok {
		for _, key := range []string{"answer", "message", "response"} {
			if v, ok := obj[key]; ok && truthy(v) {
				if s, ok := v.(string); ok {
					return s, nil
				}
				return stringify(v)
			}
		}
	}
	return stringify(doc)
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}

func stringify(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("webhook: encode answer: %w", err)
	}
	return string(b), nil
}

func truncateBody(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
