package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
)

// conversation returns the transcript for a claim, creating it on first use.
func (s *Server) conversation(claimID string) *assistant.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[claimID]
	if !ok {
		c = assistant.NewConversation(claimID)
		s.conversations[claimID] = c
	}
	return c
}

type askResponse struct {
	Reply   assistant.Reply `json:"reply"`
	Applied bool            `json:"applied"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Actor    string `json:"actor"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}

	conv := s.conversation(rep.Claim.ID)
	q, ticket, ok := conv.Begin(req.Question)
	if !ok {
		writeError(w, http.StatusConflict, "a question is already awaiting its answer")
		return
	}
	q.Context = assistant.BuildReportContext(rep.Claim, rep.Title, rep.Data())

	reply := s.deps.Assistant.Reply(r.Context(), q)
	applied := conv.Complete(ticket, reply)

	provider := s.deps.Assistant.Provider().Name()
	if err := s.deps.Store.LogAssistantQuery(r.Context(), rep.Claim.ID, actorOr(req.Actor), provider,
		q.Text, reply.Text, reply.TokensEst, reply.Failed); err != nil {
		zap.L().Warn("audit assistant query", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, askResponse{Reply: reply, Applied: applied})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs := s.conversation(chi.URLParam(r, "id")).Messages()
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	s.conversation(chi.URLParam(r, "id")).Clear()
	w.WriteHeader(http.StatusNoContent)
}
