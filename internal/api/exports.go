package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

func (s *Server) handleExportOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, export.Options)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.deps.Exporter.Export(r.Context(), format, id)
	switch {
	case eris.Is(err, export.ErrRendererUnavailable):
		writeError(w, http.StatusNotImplemented, "format "+string(format)+" is not available; use a markdown or xlsx export")
		return
	case err != nil:
		zap.L().Error("export", zap.String("claim", id), zap.String("format", string(format)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	details := map[string]interface{}{"format": string(format), "file": f.Name}
	if s.deps.ExportDir != "" {
		path, err := export.Save(s.deps.ExportDir, f)
		if err != nil {
			zap.L().Warn("save export", zap.Error(err))
		} else {
			details["path"] = path
		}
	}
	if err := s.deps.Store.LogClaimAction(r.Context(), id, store.ActionExport, "api", details); err != nil {
		zap.L().Warn("audit export", zap.Error(err))
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
