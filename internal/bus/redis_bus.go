package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBus provides Redis Streams-based messaging between intake,
// processing and the console
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
}

// StreamMessage represents a message in a Redis Stream
type StreamMessage struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// StreamHandler is a function that processes stream messages
type StreamHandler func(ctx context.Context, message StreamMessage) error

// NewRedisBus creates a new Redis bus instance
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisBusWithClient(client, logger), nil
}

func newRedisBusWithClient(client *redis.Client, logger *log.Logger) *RedisBus {
	if logger == nil {
		logger = log.New(log.Writer(), "[RedisBus] ", log.LstdFlags)
	}
	return &RedisBus{client: client, logger: logger}
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

// PublishDocument publishes to the claim_documents stream
func (rb *RedisBus) PublishDocument(ctx context.Context, msg DocumentMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	fields := map[string]interface{}{
		"claim_id":    msg.ClaimID,
		"document_id": msg.DocumentID,
		"file_name":   msg.FileName,
		"kind":        msg.Kind,
		"size":        msg.Size,
		"source":      msg.Source,
		"timestamp":   msg.Timestamp,
	}

	if err := rb.client.XAdd(ctx, &redis.XAddArgs{Stream: DocumentsStream, Values: fields}).Err(); err != nil {
		return fmt.Errorf("failed to publish document: %w", err)
	}

	rb.logger.Printf("Published document %s for claim %s", msg.FileName, msg.ClaimID)
	return nil
}

// PublishStatus publishes to the claim_status stream
func (rb *RedisBus) PublishStatus(ctx context.Context, msg StatusMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	fields := map[string]interface{}{
		"claim_id":  msg.ClaimID,
		"status":    msg.Status,
		"timestamp": msg.Timestamp,
	}
	if msg.TotalBilled != nil {
		fields["total_billed"] = strconv.FormatFloat(*msg.TotalBilled, 'f', -1, 64)
	}

	if err := rb.client.XAdd(ctx, &redis.XAddArgs{Stream: StatusStream, Values: fields}).Err(); err != nil {
		return fmt.Errorf("failed to publish status: %w", err)
	}

	rb.logger.Printf("Published status %s for claim %s", msg.Status, msg.ClaimID)
	return nil
}

// CreateConsumerGroup creates a consumer group for a stream if it doesn't exist
func (rb *RedisBus) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := rb.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s for stream %s: %w", group, stream, err)
	}

	rb.logger.Printf("Consumer group %s ready for stream %s", group, stream)
	return nil
}

// ReadStream reads messages from a stream using consumer groups
func (rb *RedisBus) ReadStream(ctx context.Context, stream, group, consumer string, handler StreamHandler) error {
	if err := rb.CreateConsumerGroup(ctx, stream, group); err != nil {
		return err
	}

	rb.logger.Printf("Starting stream reader for %s (group: %s, consumer: %s)", stream, group, consumer)

	for {
		select {
		case <-ctx.Done():
			rb.logger.Printf("Stream reader for %s stopping due to context cancellation", stream)
			return ctx.Err()
		default:
		}

		result := rb.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    1 * time.Second,
		})

		if err := result.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rb.logger.Printf("Error reading from stream %s: %v", stream, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, s := range result.Val() {
			for _, message := range s.Messages {
				streamMsg := StreamMessage{
					ID:     message.ID,
					Fields: make(map[string]string, len(message.Values)),
				}
				for key, value := range message.Values {
					if strValue, ok := value.(string); ok {
						streamMsg.Fields[key] = strValue
					}
				}

				if err := handler(ctx, streamMsg); err != nil {
					rb.logger.Printf("Error processing message %s: %v", message.ID, err)
					continue
				}

				if err := rb.client.XAck(ctx, s.Stream, group, message.ID).Err(); err != nil {
					rb.logger.Printf("Error acknowledging message %s: %v", message.ID, err)
				}
			}
		}
	}
}

// ReadDocumentsStream reads from the claim_documents stream
func (rb *RedisBus) ReadDocumentsStream(ctx context.Context, group, consumer string, handler DocumentHandler) error {
	return rb.ReadStream(ctx, DocumentsStream, group, consumer, func(ctx context.Context, m StreamMessage) error {
		return handler(ctx, decodeDocument(m.Fields))
	})
}

// ReadStatusStream reads from the claim_status stream
func (rb *RedisBus) ReadStatusStream(ctx context.Context, group, consumer string, handler StatusHandler) error {
	return rb.ReadStream(ctx, StatusStream, group, consumer, func(ctx context.Context, m StreamMessage) error {
		return handler(ctx, decodeStatus(m.Fields))
	})
}

func decodeDocument(f map[string]string) DocumentMessage {
	msg := DocumentMessage{
		ClaimID:    f["claim_id"],
		DocumentID: f["document_id"],
		FileName:   f["file_name"],
		Kind:       f["kind"],
		Source:     f["source"],
	}
	if n, err := strconv.ParseInt(f["size"], 10, 64); err == nil {
		msg.Size = n
	}
	if ts, err := parseTimestamp(f["timestamp"]); err == nil {
		msg.Timestamp = ts
	}
	return msg
}

func decodeStatus(f map[string]string) StatusMessage {
	msg := StatusMessage{
		ClaimID: f["claim_id"],
		Status:  f["status"],
	}
	if v, err := strconv.ParseFloat(f["total_billed"], 64); err == nil {
		msg.TotalBilled = &v
	}
	if ts, err := parseTimestamp(f["timestamp"]); err == nil {
		msg.Timestamp = ts
	}
	return msg
}

// GetStreamInfo returns information about a stream
func (rb *RedisBus) GetStreamInfo(ctx context.Context, stream string) (*redis.XInfoStream, error) {
	result := rb.client.XInfoStream(ctx, stream)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stream info for %s: %w", stream, err)
	}
	return result.Val(), nil
}

// GetConsumerGroupInfo returns information about consumer groups for a stream
func (rb *RedisBus) GetConsumerGroupInfo(ctx context.Context, stream string) ([]redis.XInfoGroup, error) {
	result := rb.client.XInfoGroups(ctx, stream)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to get consumer group info for %s: %w", stream, err)
	}
	return result.Val(), nil
}

// CleanupOldMessages trims a stream to maxLen entries
func (rb *RedisBus) CleanupOldMessages(ctx context.Context, stream string, maxLen int64) error {
	if err := rb.client.XTrimMaxLen(ctx, stream, maxLen).Err(); err != nil {
		return fmt.Errorf("failed to trim stream %s: %w", stream, err)
	}

	rb.logger.Printf("Trimmed stream %s to max length %d", stream, maxLen)
	return nil
}

// Reset deletes both streams along with their consumer groups
func (rb *RedisBus) Reset(ctx context.Context) error {
	if err := rb.client.Del(ctx, DocumentsStream, StatusStream).Err(); err != nil {
		return fmt.Errorf("failed to delete streams: %w", err)
	}
	rb.logger.Printf("Deleted streams %s and %s", DocumentsStream, StatusStream)
	return nil
}

// parseTimestamp parses a timestamp string to unix seconds
func parseTimestamp(timestamp string) (int64, error) {
	if timestamp == "" {
		return time.Now().Unix(), nil
	}

	// Numeric epoch, seconds or milliseconds
	if n, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		if n > 1_000_000_000_000 {
			return n / 1000, nil
		}
		return n, nil
	}

	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return ts.Unix(), nil
	}

	return time.Now().Unix(), fmt.Errorf("unable to parse timestamp: %s", timestamp)
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// GetStats returns basic statistics about the Redis streams
func (rb *RedisBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"type": "redis"}

	for _, stream := range []struct{ name, key string }{
		{DocumentsStream, "documents"},
		{StatusStream, "status"},
	} {
		if info, err := rb.GetStreamInfo(ctx, stream.name); err == nil {
			stats[stream.key+"_stream"] = map[string]interface{}{
				"length":         info.Length,
				"first_entry_id": info.FirstEntry.ID,
				"last_entry_id":  info.LastEntry.ID,
			}
		}
		if groups, err := rb.GetConsumerGroupInfo(ctx, stream.name); err == nil {
			stats[stream.key+"_consumer_groups"] = len(groups)
		}
	}

	return stats, nil
}
