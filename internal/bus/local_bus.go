package bus

import (
	"context"
	"log"
	"sync"
	"time"
)

// localMaxLen caps how many messages a stream retains; the oldest are
// trimmed first.
const localMaxLen = 1000

// LocalBus is an in-process implementation of the bus interface used when
// Redis is disabled. Like a Redis consumer group, each group receives every
// message published to a stream, including those published before it
// started reading.
type LocalBus struct {
	logger    *log.Logger
	documents *localStream[DocumentMessage]
	status    *localStream[StatusMessage]
}

// NewLocalBus creates a new in-process bus
func NewLocalBus(logger *log.Logger) *LocalBus {
	if logger == nil {
		logger = log.New(log.Writer(), "[LocalBus] ", log.LstdFlags)
	}

	return &LocalBus{
		logger:    logger,
		documents: newLocalStream[DocumentMessage](),
		status:    newLocalStream[StatusMessage](),
	}
}

// Close wakes all readers; they return once their context ends.
func (lb *LocalBus) Close() error {
	lb.documents.reset()
	lb.status.reset()
	return nil
}

// PublishDocument appends to the documents stream
func (lb *LocalBus) PublishDocument(ctx context.Context, msg DocumentMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	lb.documents.publish(msg)
	lb.logger.Printf("Published document %s for claim %s", msg.FileName, msg.ClaimID)
	return nil
}

// PublishStatus appends to the status stream
func (lb *LocalBus) PublishStatus(ctx context.Context, msg StatusMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	lb.status.publish(msg)
	lb.logger.Printf("Published status %s for claim %s", msg.Status, msg.ClaimID)
	return nil
}

// ReadDocumentsStream delivers document messages until ctx is cancelled
func (lb *LocalBus) ReadDocumentsStream(ctx context.Context, group, consumer string, handler DocumentHandler) error {
	lb.logger.Printf("Starting stream reader for %s (group: %s, consumer: %s)", DocumentsStream, group, consumer)
	return lb.documents.read(ctx, group, func(ctx context.Context, msg DocumentMessage) error {
		if err := handler(ctx, msg); err != nil {
			lb.logger.Printf("Error processing document %s: %v", msg.FileName, err)
		}
		return nil
	})
}

// ReadStatusStream delivers status messages until ctx is cancelled
func (lb *LocalBus) ReadStatusStream(ctx context.Context, group, consumer string, handler StatusHandler) error {
	lb.logger.Printf("Starting stream reader for %s (group: %s, consumer: %s)", StatusStream, group, consumer)
	return lb.status.read(ctx, group, func(ctx context.Context, msg StatusMessage) error {
		if err := handler(ctx, msg); err != nil {
			lb.logger.Printf("Error processing status for claim %s: %v", msg.ClaimID, err)
		}
		return nil
	})
}

// GetStats returns stream lengths
func (lb *LocalBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	docLen, docGroups := lb.documents.stats()
	statusLen, statusGroups := lb.status.stats()
	return map[string]interface{}{
		"type": "local",
		"documents_stream": map[string]interface{}{
			"length": docLen,
		},
		"status_stream": map[string]interface{}{
			"length": statusLen,
		},
		"documents_consumer_groups": docGroups,
		"status_consumer_groups":    statusGroups,
	}, nil
}

// HealthCheck always returns nil for the local bus
func (lb *LocalBus) HealthCheck(ctx context.Context) error {
	return nil
}

// Reset drops retained messages. Groups keep reading new messages.
func (lb *LocalBus) Reset(ctx context.Context) error {
	lb.documents.reset()
	lb.status.reset()
	return nil
}

type localStream[T any] struct {
	mu     sync.Mutex
	base   int // absolute offset of msgs[0]
	msgs   []T
	groups map[string]int // absolute offset of the next message per group
	notify chan struct{}
}

func newLocalStream[T any]() *localStream[T] {
	return &localStream[T]{
		groups: make(map[string]int),
		notify: make(chan struct{}),
	}
}

func (s *localStream[T]) publish(msg T) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	if over := len(s.msgs) - localMaxLen; over > 0 {
		s.msgs = append([]T(nil), s.msgs[over:]...)
		s.base += over
	}
	s.wakeLocked()
	s.mu.Unlock()
}

func (s *localStream[T]) wakeLocked() {
	close(s.notify)
	s.notify = make(chan struct{})
}

// next returns the pending batch for group, or a channel to wait on.
func (s *localStream[T]) next(group string) ([]T, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, ok := s.groups[group]
	if !ok || cursor < s.base {
		cursor = s.base
	}
	end := s.base + len(s.msgs)
	if cursor >= end {
		s.groups[group] = cursor
		return nil, s.notify
	}
	batch := append([]T(nil), s.msgs[cursor-s.base:]...)
	s.groups[group] = end
	return batch, nil
}

func (s *localStream[T]) read(ctx context.Context, group string, handler func(context.Context, T) error) error {
	for {
		batch, wait := s.next(group)
		for _, msg := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			_ = handler(ctx, msg)
		}
		if wait == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

func (s *localStream[T]) stats() (length, groups int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs), len(s.groups)
}

func (s *localStream[T]) reset() {
	s.mu.Lock()
	s.base += len(s.msgs)
	s.msgs = nil
	s.wakeLocked()
	s.mu.Unlock()
}
