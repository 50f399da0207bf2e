package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestAuditEntriesFlow(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	defer func() { _ = s.Close() }()

	// Tables are created by NewStore; a second call must be harmless.
	if err := s.SetupAuditTables(); err != nil {
		t.Fatalf("SetupAuditTables error: %v", err)
	}

	ctx := context.Background()

	if err := s.LogAssistantQuery(ctx, "1", "adjuster", "webhook", "What is the total?", "$41,501.77", 123, false); err != nil {
		t.Fatalf("LogAssistantQuery error: %v", err)
	}

	entries, err := s.GetAuditEntries(ctx, "1", 10)
	if err != nil {
		t.Fatalf("GetAuditEntries error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Action != ActionAssistantQuery {
		t.Fatalf("action = %q", e.Action)
	}
	if e.Metadata["tokens"] != "123" || e.Metadata["provider"] != "webhook" {
		t.Fatalf("unexpected metadata: %+v", e.Metadata)
	}
	if e.Details["question"] != "What is the total?" {
		t.Fatalf("unexpected details: %+v", e.Details)
	}

	if err := s.LogReportEdit(ctx, "1", "3", "adjuster", "isKeyDate", "true"); err != nil {
		t.Fatalf("LogReportEdit error: %v", err)
	}
	if err := s.AddAuditEntry(ctx, AuditEntry{
		ClaimID: "1",
		Action:  "test_action",
		Details: map[string]interface{}{"k": "v"},
	}); err != nil {
		t.Fatalf("AddAuditEntry error: %v", err)
	}

	all, err := s.GetAuditEntries(ctx, "1", 0)
	if err != nil {
		t.Fatalf("GetAuditEntries(0) error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	// Same-second entries fall back to insertion order, newest first.
	if all[0].Action != "test_action" || all[0].Actor != "system" {
		t.Fatalf("unexpected newest entry: %+v", all[0])
	}
	if all[1].EventID != "3" || all[1].Details["field"] != "isKeyDate" {
		t.Fatalf("unexpected edit entry: %+v", all[1])
	}

	limited, err := s.GetAuditEntries(ctx, "1", 2)
	if err != nil {
		t.Fatalf("GetAuditEntries(2) error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries with limit, got %d", len(limited))
	}

	other, err := s.GetAuditEntries(ctx, "2", 0)
	if err != nil {
		t.Fatalf("GetAuditEntries other claim error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no entries for claim 2, got %d", len(other))
	}
}
