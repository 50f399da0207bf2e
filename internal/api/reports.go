package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/sections"
	"github.com/Ashfaaq98/claims-console/internal/store"
	"github.com/Ashfaaq98/claims-console/internal/timeline"
)

// openReport resolves the live report for the {id} route parameter.
func (s *Server) openReport(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	rep, err := s.deps.Sessions.Resolve(r.Context(), s.deps.Store, chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	return rep, true
}

type reportResponse struct {
	Claim     store.Claim              `json:"claim"`
	Type      report.Type              `json:"type"`
	TypeLabel string                   `json:"typeLabel"`
	Title     string                   `json:"title"`
	EditMode  bool                     `json:"editMode"`
	Data      report.Data              `json:"data"`
	Sections  []sections.Section       `json:"sections"`
	Inserted  []report.InsertedSection `json:"insertedSections"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Claim:     rep.Claim,
		Type:      rep.Type,
		TypeLabel: rep.Type.Label(),
		Title:     rep.Title,
		EditMode:  rep.EditMode(),
		Data:      rep.Data(),
		Sections:  sections.Layout(rep.Type, s.deps.NextSteps),
		Inserted:  rep.InsertedSections(),
	})
}

func (s *Server) handleEditMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	rep.SetEditMode(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"editMode": rep.EditMode()})
}

// filtersFromQuery reads the timeline filter form from query parameters
// named after the Filters JSON fields.
func filtersFromQuery(r *http.Request) timeline.Filters {
	q := r.URL.Query()
	return timeline.Filters{
		PatientName:      q.Get("patientName"),
		DoctorName:       q.Get("doctorName"),
		MedicalFacility:  q.Get("medicalFacility"),
		MedicalSpecialty: q.Get("medicalSpecialty"),
		ProcedureType:    q.Get("procedureType"),
		MedicationType:   q.Get("medicationType"),
		Label:            q.Get("label"),
		NeedsReview:      q.Get("needsReview"),
		IsKeyDate:        q.Get("isKeyDate"),
		StartDate:        q.Get("startDate"),
		EndDate:          q.Get("endDate"),
		Search:           q.Get("search"),
	}
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	f := filtersFromQuery(r)
	all := rep.Data().Timeline
	events := timeline.Filter(all, f)
	if events == nil {
		events = []report.MedicalEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events":        events,
		"total":         len(all),
		"activeFilters": f.Active(),
	})
}

func (s *Server) handleTimelineOptions(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, timeline.BuildOptions(rep.Data().Timeline))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Actor string `json:"actor"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")

	var (
		value bool
		err   error
	)
	switch req.Field {
	case "isKeyDate":
		value, err = rep.ToggleKeyDate(eventID)
	case "needsReview":
		value, err = rep.ToggleNeedsReview(eventID)
	default:
		writeError(w, http.StatusBadRequest, `field must be "isKeyDate" or "needsReview"`)
		return
	}
	if err != nil {
		reportError(w, err)
		return
	}
	s.auditEdit(r, rep, eventID, actorOr(req.Actor), req.Field, strconv.FormatBool(value))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"eventId": eventID,
		"field":   req.Field,
		"value":   value,
	})
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
		Actor string `json:"actor"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if err := rep.EditEvent(eventID, req.Field, req.Value); err != nil {
		reportError(w, err)
		return
	}
	s.auditEdit(r, rep, eventID, actorOr(req.Actor), req.Field, req.Value)
	ev, _ := rep.Event(eventID)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) auditEdit(r *http.Request, rep *report.Report, eventID, actor, field, value string) {
	if err := s.deps.Store.LogReportEdit(r.Context(), rep.Claim.ID, eventID, actor, field, value); err != nil {
		zap.L().Warn("audit report edit", zap.String("claim", rep.Claim.ID), zap.Error(err))
	}
}

func reportError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, report.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case eris.Is(err, report.ErrNotEditing):
		writeError(w, http.StatusConflict, err.Error())
	case eris.Is(err, report.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("report edit", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type billingResponse struct {
	Summary    billing.Summary    `json:"summary"`
	Formatted  map[string]string  `json:"formatted"`
	Categories []billing.Subtotal `json:"categories"`
	Groups     []billing.Subtotal `json:"groups"`
	HighImpact []report.BillItem  `json:"highImpact,omitempty"`
	Bills      []report.BillItem  `json:"bills"`
	RiskOnly   bool               `json:"riskOnly"`
}

func (s *Server) handleBilling(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	bills := rep.Data().Bills
	sum := billing.Totals(bills, rep.Type)
	f := s.deps.Formatter

	resp := billingResponse{
		Summary: sum,
		Formatted: map[string]string{
			"accidentRelatedTotal": f.Format(sum.AccidentRelated),
			"unrelatedTotal":       f.Format(sum.Unrelated),
			"total":                f.Format(sum.Total),
		},
		Categories: billing.CategorySubtotals(bills),
		Groups:     billing.GroupSubtotals(bills),
		Bills:      bills,
	}
	if rep.Type == report.TypeFull {
		resp.HighImpact = billing.HighImpact(bills, 5)
	}
	if risk, _ := strconv.ParseBool(r.URL.Query().Get("riskOnly")); risk {
		resp.RiskOnly = true
		resp.Bills = billing.RiskOnly(bills)
		if resp.Bills == nil {
			resp.Bills = []report.BillItem{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	layout := sections.Layout(rep.Type, s.deps.NextSteps)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sections":   layout,
		"entries":    sections.Flatten(layout),
		"contentIds": sections.ContentIDs(layout),
		"inserted":   rep.InsertedSections(),
	})
}

func (s *Server) handleInsertSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Markdown string `json:"markdown"`
		Actor    string `json:"actor"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" || req.Markdown == "" {
		writeError(w, http.StatusBadRequest, "title and markdown are required")
		return
	}
	rep, ok := s.openReport(w, r)
	if !ok {
		return
	}
	sec := rep.InsertSection(req.Title, req.Markdown)
	if err := s.deps.Store.LogClaimAction(r.Context(), rep.Claim.ID, store.ActionSectionInsert, actorOr(req.Actor),
		map[string]interface{}{"title": sec.Title}); err != nil {
		zap.L().Warn("audit section insert", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, sec)
}

func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Guidance)
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
