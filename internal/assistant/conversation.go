package assistant

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents a single message in the chat transcript.
type ChatMessage struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"` // "user" or "assistant"
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Failed     bool        `json:"failed,omitempty"`
	Suggestion *Suggestion `json:"insertSection,omitempty"`
}

// Ticket identifies the request a reply belongs to.
type Ticket struct {
	ClaimID    string
	Generation uint64
}

// Conversation is the chat transcript for the claim currently on screen.
// Switching claims or clearing bumps the generation, so replies to earlier
// requests are discarded instead of landing in the wrong transcript.
type Conversation struct {
	mu         sync.Mutex
	claimID    string
	generation uint64
	pending    bool
	messages   []ChatMessage
}

// NewConversation starts a transcript for claimID.
func NewConversation(claimID string) *Conversation {
	return &Conversation{claimID: claimID}
}

// Switch moves the conversation to another claim, dropping the transcript
// and any request in flight.
func (c *Conversation) Switch(claimID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimID = claimID
	c.reset()
}

// Clear drops the transcript for the current claim.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Conversation) reset() {
	c.generation++
	c.pending = false
	c.messages = nil
}

// Begin records a user question and returns the ticket its reply must
// present. It refuses blank input and a second question while one is in
// flight.
func (c *Conversation) Begin(text string) (Question, Ticket, bool) {
	text = strings.TrimSpace(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == "" || c.pending {
		return Question{}, Ticket{}, false
	}
	now := time.Now()
	c.messages = append(c.messages, ChatMessage{
		ID:        "user-" + uuid.NewString(),
		Role:      "user",
		Content:   text,
		Timestamp: now,
	})
	c.pending = true
	return Question{Text: text, ClaimID: c.claimID, Timestamp: now},
		Ticket{ClaimID: c.claimID, Generation: c.generation}, true
}

// Complete applies a reply if its ticket is still current and reports
// whether it was applied.
func (c *Conversation) Complete(t Ticket, r Reply) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.ClaimID != c.claimID || t.Generation != c.generation {
		return false
	}
	c.pending = false
	c.messages = append(c.messages, ChatMessage{
		ID:         r.ID,
		Role:       "assistant",
		Content:    r.Text,
		Timestamp:  r.Timestamp,
		Failed:     r.Failed,
		Suggestion: r.Suggestion,
	})
	return true
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Pending reports whether a question is awaiting its reply.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) ClaimID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claimID
}
