package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var quiet = log.New(io.Discard, "", 0)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Answer(context.Context, assistant.Question) (string, error) {
	return "", errors.New("upstream unavailable")
}

type testEnv struct {
	server *Server
	store  *store.Store
	bus    *bus.LocalBus
}

func newTestEnv(t *testing.T, provider assistant.Provider) *testEnv {
	t.Helper()
	st, err := store.NewStore(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.SeedDemoClaims(context.Background()))

	if provider == nil {
		provider = assistant.NewLocalStub()
	}
	b := bus.NewLocalBus(quiet)
	sessions := report.NewSessions(report.NewProvider(), time.Minute)
	guidance, err := report.LoadGuidance()
	require.NoError(t, err)
	f := billing.NewFormatter("en-US")

	exp, err := export.NewService(func(ctx context.Context, id string) (*report.Report, error) {
		return sessions.Resolve(ctx, st, id)
	}, f, true)
	require.NoError(t, err)

	s := New(Deps{
		Store:     st,
		Bus:       b,
		Intake:    ingest.NewIntake(st, b, quiet),
		Sessions:  sessions,
		Assistant: assistant.NewBridge(provider, quiet),
		Exporter:  exp,
		Formatter: f,
		Guidance:  guidance,
		NextSteps: true,
	}, Options{})
	return &testEnv{server: s, store: st, bus: b}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["bus"])
}

func TestListAndSearchClaims(t *testing.T) {
	env := newTestEnv(t, nil)

	var claims []store.Claim
	rec := env.do(t, http.MethodGet, "/api/claims", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &claims)
	require.Len(t, claims, 2)
	assert.Equal(t, "1", claims[0].ID)

	rec = env.do(t, http.MethodGet, "/api/claims?q=SMITH", nil)
	decode(t, rec, &claims)
	require.Len(t, claims, 1)
	assert.Equal(t, "2", claims[0].ID)

	rec = env.do(t, http.MethodGet, "/api/claims?q=nobody", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetClaimNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/claims/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/claims/42/documents", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateClaimSettlesToReady(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := ingest.NewProcessor(env.store, env.bus, ingest.ProcessorOptions{Delay: 30 * time.Millisecond, Logger: quiet})
	go func() { _ = p.Run(ctx) }()

	rec := env.do(t, http.MethodPost, "/api/claims", map[string]interface{}{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims", map[string]interface{}{
		"name":  "Doe v. City Bus Co.",
		"files": []map[string]interface{}{{"name": "photo.gif"}},
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims", map[string]interface{}{
		"name":  "Doe v. City Bus Co.",
		"files": []map[string]interface{}{{"name": "ER_Records.pdf", "size": 1200}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created store.Claim
	decode(t, rec, &created)
	assert.Equal(t, "3", created.ID)
	assert.Equal(t, store.StatusProcessing, created.Status)
	assert.Equal(t, 1, created.FileCount)

	assert.Eventually(t, func() bool {
		var c store.Claim
		rec := env.do(t, http.MethodGet, "/api/claims/3", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		decode(t, rec, &c)
		return c.Status == store.StatusReady && c.TotalBilled != nil && *c.TotalBilled == ingest.DefaultTotalBilled
	}, 2*time.Second, 20*time.Millisecond)

	var claims []store.Claim
	decode(t, env.do(t, http.MethodGet, "/api/claims", nil), &claims)
	require.Len(t, claims, 3)
	assert.Equal(t, "3", claims[0].ID, "new claims list first")
}

func TestAddDocuments(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/claims/1/documents", map[string]interface{}{"files": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/1/documents", map[string]interface{}{
		"files": []map[string]interface{}{{"name": "PT_Logs.docx", "size": 10}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var docs []store.Document
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/documents", nil), &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "docx", docs[0].Kind)
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/claims/2/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rep struct {
		Type     report.Type `json:"type"`
		Title    string      `json:"title"`
		Data     report.Data `json:"data"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}
	decode(t, rec, &rep)
	assert.Equal(t, report.TypeMVP, rep.Type)
	assert.Equal(t, "MVP Report: Luke Frazza", rep.Title)
	assert.Len(t, rep.Data.Bills, 10)
	require.Len(t, rep.Sections, 5)
	assert.Equal(t, "next-steps", rep.Sections[4].ID)

	rec = env.do(t, http.MethodGet, "/api/claims/77/report", nil)
	require.Equal(t, http.StatusOK, rec.Code, "unknown ids render the default report")
	decode(t, rec, &rep)
	assert.Equal(t, report.TypeFull, rep.Type)

	rec = env.do(t, http.MethodGet, "/api/claims/1/guidance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var g report.Guidance
	decode(t, rec, &g)
	assert.Equal(t, "MEDIUM", g.Exposure.Level)
}

func TestTimelineToggleAndFilter(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/claims/1/timeline/3/toggle", map[string]string{"field": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/claims/1/timeline/999/toggle", map[string]string{"field": "isKeyDate"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/1/timeline/3/toggle", map[string]string{"field": "needsReview", "actor": "adjuster"})
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled map[string]interface{}
	decode(t, rec, &toggled)
	assert.Equal(t, true, toggled["value"])

	var tl struct {
		Events        []report.MedicalEvent `json:"events"`
		Total         int                   `json:"total"`
		ActiveFilters int                   `json:"activeFilters"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/timeline?needsReview=yes", nil), &tl)
	require.Len(t, tl.Events, 1)
	assert.Equal(t, "3", tl.Events[0].ID)
	assert.Equal(t, 10, tl.Total)
	assert.Equal(t, 1, tl.ActiveFilters)

	decode(t, env.do(t, http.MethodGet, "/api/claims/1/timeline?needsReview=maybe", nil), &tl)
	assert.Len(t, tl.Events, 10, "out-of-domain filter values are ignored")

	var audit []store.AuditEntry
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/audit", nil), &audit)
	require.Len(t, audit, 1)
	assert.Equal(t, store.ActionReportEdit, audit[0].Action)
	assert.Equal(t, "3", audit[0].EventID)
	assert.Equal(t, "adjuster", audit[0].Actor)

	// Toggles are scoped to the claim's session.
	decode(t, env.do(t, http.MethodGet, "/api/claims/2/timeline?needsReview=yes", nil), &tl)
	assert.Empty(t, tl.Events)
}

func TestEditEventRequiresEditMode(t *testing.T) {
	env := newTestEnv(t, nil)
	edit := map[string]string{"field": "description", "value": "Revised"}

	rec := env.do(t, http.MethodPatch, "/api/claims/1/timeline/6", edit)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/claims/1/edit-mode", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/claims/1/timeline/6", edit)
	require.Equal(t, http.StatusOK, rec.Code)
	var ev report.MedicalEvent
	decode(t, rec, &ev)
	assert.Equal(t, "Revised", ev.Description)

	rec = env.do(t, http.MethodPatch, "/api/claims/1/timeline/6", map[string]string{"field": "amount", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBilling(t *testing.T) {
	env := newTestEnv(t, nil)

	var mvp billingResponse
	decode(t, env.do(t, http.MethodGet, "/api/claims/2/billing", nil), &mvp)
	assert.Equal(t, 41501.77, mvp.Summary.Total)
	assert.Equal(t, "$41,501.77", mvp.Formatted["total"])
	assert.Equal(t, "$33,323.72", mvp.Formatted["accidentRelatedTotal"])
	assert.Empty(t, mvp.HighImpact)

	var full billingResponse
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/billing?riskOnly=true", nil), &full)
	assert.True(t, full.RiskOnly)
	assert.Len(t, full.HighImpact, 5)
	assert.Equal(t, 15863.84, full.HighImpact[0].Amount)
	for _, b := range full.Bills {
		assert.True(t, billing.IsRisk(b), b.ID)
	}
	assert.Less(t, len(full.Bills), 9)
}

func TestAskAndInsertSection(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/claims/1/ask", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/1/ask", map[string]string{"question": "Give me a billing breakdown"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Applied)
	assert.False(t, resp.Reply.Failed)
	assert.Contains(t, resp.Reply.Text, "$41,501.77")
	require.NotNil(t, resp.Reply.Suggestion)
	assert.Equal(t, "Elyon Analysis – Billing Assessment", resp.Reply.Suggestion.Title)

	var history struct {
		Messages []assistant.ChatMessage `json:"messages"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/chat", nil), &history)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "assistant", history.Messages[1].Role)

	rec = env.do(t, http.MethodPost, "/api/claims/1/sections", map[string]string{
		"title":    resp.Reply.Suggestion.Title,
		"markdown": resp.Reply.Suggestion.Markdown,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var secs struct {
		Inserted []report.InsertedSection `json:"inserted"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/sections", nil), &secs)
	require.Len(t, secs.Inserted, 1)

	var audit []store.AuditEntry
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/audit", nil), &audit)
	require.Len(t, audit, 2)
	assert.Equal(t, store.ActionSectionInsert, audit[0].Action)
	assert.Equal(t, store.ActionAssistantQuery, audit[1].Action)
	assert.Equal(t, "local_stub", audit[1].Metadata["provider"])

	rec = env.do(t, http.MethodDelete, "/api/claims/1/chat", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/chat", nil), &history)
	assert.Empty(t, history.Messages)
}

func TestAskProviderFailureApologizes(t *testing.T) {
	env := newTestEnv(t, failingProvider{})

	rec := env.do(t, http.MethodPost, "/api/claims/2/ask", map[string]string{"question": "What is the timeline?"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Reply.Failed)
	assert.Equal(t, assistant.Apology, resp.Reply.Text)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.deps.ExportDir = t.TempDir()

	rec := env.do(t, http.MethodGet, "/api/claims/1/exports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var opts []export.Option
	decode(t, rec, &opts)
	assert.Len(t, opts, len(export.Options))

	rec = env.do(t, http.MethodPost, "/api/claims/1/export/md-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "claim-1-md-summary-")
	assert.Contains(t, rec.Body.String(), "## Executive Summary")

	rec = env.do(t, http.MethodPost, "/api/claims/1/export/pdf", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/claims/1/export/rtf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var audit []store.AuditEntry
	decode(t, env.do(t, http.MethodGet, "/api/claims/1/audit", nil), &audit)
	require.Len(t, audit, 1)
	assert.Equal(t, store.ActionExport, audit[0].Action)
	assert.NotEmpty(t, audit[0].Details["path"])
}
