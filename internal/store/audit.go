package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	ActionClaimCreated   = "claim_created"
	ActionClaimReady     = "claim_ready"
	ActionDocumentAdded  = "document_added"
	ActionAssistantQuery = "assistant_query"
	ActionReportEdit     = "report_edit"
	ActionSectionInsert  = "section_inserted"
	ActionExport         = "report_export"
)

// AuditEntry represents an audit log entry
type AuditEntry struct {
	ID        string                 `json:"id"`
	ClaimID   string                 `json:"claimId"`
	EventID   string                 `json:"eventId,omitempty"` // timeline event, when the action targets one
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Details   map[string]interface{} `json:"details"`
	Metadata  map[string]string      `json:"metadata,omitempty"` // tokens, provider, etc.
	Timestamp time.Time              `json:"timestamp"`
	CreatedAt time.Time              `json:"createdAt"`
}

// SetupAuditTables creates the audit table if it doesn't exist
func (s *Store) SetupAuditTables() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL,
			event_id TEXT,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			details TEXT NOT NULL,
			metadata TEXT,
			timestamp INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_audit_claim_id ON audit_entries(claim_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_entries(action)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute audit migration: %w", err)
		}
	}
	return nil
}

// AddAuditEntry adds an audit entry to the database
func (s *Store) AddAuditEntry(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}
	entry.CreatedAt = time.Now()

	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	var metadataJSON interface{}
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadataJSON = string(b)
	}

	var eventID interface{}
	if entry.EventID != "" {
		eventID = entry.EventID
	}

	query := `INSERT INTO audit_entries (
		id, claim_id, event_id, action, actor, details, metadata, timestamp, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.ClaimID, eventID, entry.Action, entry.Actor,
		string(detailsJSON), metadataJSON, entry.Timestamp.Unix(), entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetAuditEntries retrieves audit entries for a claim, newest first
func (s *Store) GetAuditEntries(ctx context.Context, claimID string, limit int) ([]AuditEntry, error) {
	query := `SELECT id, claim_id, event_id, action, actor, details, metadata, timestamp, created_at
		FROM audit_entries WHERE claim_id = ? ORDER BY timestamp DESC, rowid DESC`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var eventID, metadataJSON *string
		var detailsJSON string
		var timestamp, createdAt int64

		err := rows.Scan(&entry.ID, &entry.ClaimID, &eventID, &entry.Action,
			&entry.Actor, &detailsJSON, &metadataJSON, &timestamp, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.Timestamp = time.Unix(timestamp, 0)
		entry.CreatedAt = time.Unix(createdAt, 0)

		if eventID != nil {
			entry.EventID = *eventID
		}

		if err := json.Unmarshal([]byte(detailsJSON), &entry.Details); err != nil {
			entry.Details = map[string]interface{}{"raw": detailsJSON}
		}

		if metadataJSON != nil {
			if err := json.Unmarshal([]byte(*metadataJSON), &entry.Metadata); err != nil {
				entry.Metadata = map[string]string{"raw": *metadataJSON}
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LogClaimAction logs a claim-level action
func (s *Store) LogClaimAction(ctx context.Context, claimID, action, actor string, details map[string]interface{}) error {
	return s.AddAuditEntry(ctx, AuditEntry{
		ClaimID: claimID,
		Action:  action,
		Actor:   actor,
		Details: details,
	})
}

// LogAssistantQuery logs a chat question with its answer and provider
func (s *Store) LogAssistantQuery(ctx context.Context, claimID, actor, provider, question, answer string, tokens int, failed bool) error {
	return s.AddAuditEntry(ctx, AuditEntry{
		ClaimID: claimID,
		Action:  ActionAssistantQuery,
		Actor:   actor,
		Details: map[string]interface{}{
			"question": question,
			"answer":   answer,
			"failed":   failed,
		},
		Metadata: map[string]string{
			"provider": provider,
			"tokens":   strconv.Itoa(tokens),
		},
	})
}

// LogReportEdit logs a change to a timeline event of a claim's report
func (s *Store) LogReportEdit(ctx context.Context, claimID, eventID, actor, field, value string) error {
	return s.AddAuditEntry(ctx, AuditEntry{
		ClaimID: claimID,
		EventID: eventID,
		Action:  ActionReportEdit,
		Actor:   actor,
		Details: map[string]interface{}{
			"field": field,
			"value": value,
		},
	})
}
