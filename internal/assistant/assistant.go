// Package assistant answers free-text questions about a claim through a
// pluggable provider: the chat webhook, an OpenAI-compatible model, or an
// offline stub.
package assistant

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Apology is shown in place of an answer whenever a provider fails.
const Apology = "I encountered an error processing your request. Please try again."

// Question is a single chat request about a claim. Context carries the
// rendered report for providers that reason over it; the webhook ignores it.
type Question struct {
	Text      string    `json:"question"`
	ClaimID   string    `json:"claimId"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"-"`
}

// Provider produces an answer or an error. Bridge turns errors into the
// apology.
type Provider interface {
	Name() string
	Answer(ctx context.Context, q Question) (string, error)
}

// Asker answers questions without ever failing.
type Asker interface {
	Ask(ctx context.Context, q Question) string
}

// Suggestion is an answer reformatted as an insertable report section.
type Suggestion struct {
	Title    string `json:"title"`
	Markdown string `json:"content"`
}

// Reply is the assistant side of one exchange.
type Reply struct {
	ID         string      `json:"id"`
	Text       string      `json:"content"`
	Failed     bool        `json:"failed"`
	Timestamp  time.Time   `json:"timestamp"`
	TokensEst  int         `json:"tokensEst"`
	Suggestion *Suggestion `json:"insertSection,omitempty"`
}

// Bridge fronts a provider with the chat contract: a question in, some text
// out.
type Bridge struct {
	provider Provider
	logger   *log.Logger
}

// NewBridge wraps a provider. A nil logger discards output.
func NewBridge(p Provider, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Bridge{provider: p, logger: logger}
}

// Provider returns the wrapped provider.
func (b *Bridge) Provider() Provider { return b.provider }

// Ask implements Asker.
func (b *Bridge) Ask(ctx context.Context, q Question) string {
	return b.Reply(ctx, q).Text
}

// Reply asks the provider and packages the outcome. Failures are logged and
// replaced with Apology; no retry is attempted.
func (b *Bridge) Reply(ctx context.Context, q Question) Reply {
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now()
	}
	r := Reply{ID: "assistant-" + uuid.NewString(), Timestamp: time.Now()}

	text, err := b.provider.Answer(ctx, q)
	if err != nil {
		b.logger.Printf("provider=%s claim=%s failed: %v", b.provider.Name(), q.ClaimID, err)
		r.Text = Apology
		r.Failed = true
		return r
	}

	r.Text = text
	r.TokensEst = EstimateTokens(q.Text + text)
	if ShouldInsertSection(q.Text, text) {
		r.Suggestion = &Suggestion{
			Title:    SectionTitle(q.Text),
			Markdown: FormatMarkdownSection(text),
		}
	}
	return r
}

// EstimateTokens is a rough count at ~4 characters per token.
func EstimateTokens(text string) int {
	return len(strings.TrimSpace(text)) / 4
}
