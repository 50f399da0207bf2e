package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if s.deps.Bus != nil {
		busStatus := "ok"
		if err := s.deps.Bus.HealthCheck(r.Context()); err != nil {
			busStatus = err.Error()
			resp["status"] = "degraded"
		}
		resp["bus"] = busStatus
	}
	stats, err := s.deps.Store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	resp["claims"] = stats
	if s.deps.Sessions != nil {
		resp["sessions"] = s.deps.Sessions.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.deps.Store.SearchClaims(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		zap.L().Error("list claims", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []store.Claim{}
	}
	writeJSON(w, http.StatusOK, claims)
}

type createClaimRequest struct {
	Name  string          `json:"name"`
	Files []ingest.Upload `json:"files"`
	Actor string          `json:"actor"`
}

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "claim name is required")
		return
	}
	c, err := s.deps.Intake.CreateClaim(r.Context(), req.Name, actorOr(req.Actor), req.Files)
	if err != nil {
		s.intakeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Store.GetClaim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Store.GetClaim(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	docs, err := s.deps.Store.ListDocuments(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

type addDocumentsRequest struct {
	Files []ingest.Upload `json:"files"`
	Actor string          `json:"actor"`
}

func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addDocumentsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}
	docs, err := s.deps.Intake.AddDocuments(r.Context(), chi.URLParam(r, "id"), actorOr(req.Actor), req.Files)
	if err != nil {
		s.intakeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, docs)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 100)
	entries, err := s.deps.Store.GetAuditEntries(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrClaimNotFound) {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	zap.L().Error("store", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) intakeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ingest.ErrUnsupportedFile) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	s.storeError(w, err)
}

func actorOr(actor string) string {
	if a := strings.TrimSpace(actor); a != "" {
		return a
	}
	return "api"
}
