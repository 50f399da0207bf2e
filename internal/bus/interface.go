package bus

import (
	"context"
	"io"
	"log"
)

// Stream names
const (
	DocumentsStream = "claim_documents"
	StatusStream    = "claim_status"
)

// DocumentMessage announces a document attached to a claim.
type DocumentMessage struct {
	ClaimID    string `json:"claim_id"`
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	Kind       string `json:"kind"`
	Size       int64  `json:"size"`
	Source     string `json:"source"` // "folder", "http", "ui"
	Timestamp  int64  `json:"timestamp"`
}

// StatusMessage announces a claim status transition.
type StatusMessage struct {
	ClaimID     string   `json:"claim_id"`
	Status      string   `json:"status"`
	TotalBilled *float64 `json:"total_billed,omitempty"`
	Timestamp   int64    `json:"timestamp"`
}

// DocumentHandler processes one document message.
type DocumentHandler func(ctx context.Context, msg DocumentMessage) error

// StatusHandler processes one status message.
type StatusHandler func(ctx context.Context, msg StatusMessage) error

// Bus defines the interface for message bus implementations
type Bus interface {
	// PublishDocument publishes to the documents stream
	PublishDocument(ctx context.Context, msg DocumentMessage) error

	// PublishStatus publishes to the status stream
	PublishStatus(ctx context.Context, msg StatusMessage) error

	// ReadDocumentsStream blocks delivering document messages to handler
	// until ctx is cancelled. Each group sees every message once.
	ReadDocumentsStream(ctx context.Context, group, consumer string, handler DocumentHandler) error

	// ReadStatusStream blocks delivering status messages to handler until
	// ctx is cancelled.
	ReadStatusStream(ctx context.Context, group, consumer string, handler StatusHandler) error

	// GetStats returns basic statistics about the bus
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// HealthCheck performs a health check on the bus connection
	HealthCheck(ctx context.Context) error

	// Reset drops all pending messages
	Reset(ctx context.Context) error

	// Close closes the bus connection
	Close() error
}

// NewBus creates a new bus instance based on the Redis URL.
// If redisURL is empty or Redis is unreachable, returns an in-process LocalBus.
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if redisURL == "" {
		return NewLocalBus(logger)
	}

	redisBus, err := NewRedisBus(redisURL, logger)
	if err == nil {
		return redisBus
	}

	logger.Printf("Redis unavailable (%v), using in-process bus", err)
	return NewLocalBus(logger)
}
