// Package api serves the claims console over a JSON HTTP API. Routes mirror
// the dashboard ("/") and the per-claim report view ("/claim/{id}").
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// Deps are the services the API fronts.
type Deps struct {
	Store     *store.Store
	Bus       bus.Bus
	Intake    *ingest.Intake
	Sessions  *report.Sessions
	Assistant *assistant.Bridge
	Exporter  export.Exporter
	Formatter *billing.Formatter
	Guidance  report.Guidance
	// NextSteps adds the Next Steps section to report layouts.
	NextSteps bool
	// ExportDir, when set, also keeps a copy of every export on disk.
	ExportDir string
}

// Options configure the listener.
type Options struct {
	Bind        string
	CORSOrigins []string
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	opts    Options
	router  chi.Router
	srv     *http.Server
	started int32

	mu            sync.Mutex
	conversations map[string]*assistant.Conversation
}

// New builds the server and its routes.
func New(deps Deps, opts Options) *Server {
	if opts.Bind == "" {
		opts.Bind = "127.0.0.1:8080"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if deps.Formatter == nil {
		deps.Formatter = billing.NewFormatter("en-US")
	}
	s := &Server{
		deps:          deps,
		opts:          opts,
		conversations: make(map[string]*assistant.Conversation),
	}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:         opts.Bind,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/claims", func(r chi.Router) {
		r.Get("/", s.handleListClaims)
		r.Post("/", s.handleCreateClaim)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetClaim)
			r.Get("/documents", s.handleListDocuments)
			r.Post("/documents", s.handleAddDocuments)
			r.Get("/report", s.handleReport)
			r.Put("/edit-mode", s.handleEditMode)
			r.Get("/timeline", s.handleTimeline)
			r.Get("/timeline/options", s.handleTimelineOptions)
			r.Post("/timeline/{eventID}/toggle", s.handleToggle)
			r.Patch("/timeline/{eventID}", s.handleEditEvent)
			r.Get("/billing", s.handleBilling)
			r.Get("/sections", s.handleSections)
			r.Post("/sections", s.handleInsertSection)
			r.Get("/guidance", s.handleGuidance)
			r.Get("/chat", s.handleChatHistory)
			r.Delete("/chat", s.handleChatClear)
			r.Post("/ask", s.handleAsk)
			r.Get("/exports", s.handleExportOptions)
			r.Post("/export/{format}", s.handleExport)
			r.Get("/audit", s.handleAudit)
		})
	})
	return r
}

// Start binds synchronously and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return eris.New("api server already started")
	}
	ln, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return eris.Wrapf(err, "failed to listen on %s", s.opts.Bind)
	}
	zap.L().Info("API listening", zap.String("addr", "http://"+s.opts.Bind))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("API server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("API shutdown failed", zap.Error(err))
		}
	}()
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
		}
		if status >= 500 {
			zap.L().Error("request", fields...)
			return
		}
		zap.L().Info("request", fields...)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return eris.Wrap(err, "invalid JSON body")
	}
	return nil
}
