package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Ashfaaq98/claims-console/internal/store"
)

// HTTPIngestOptions controls the HTTP ingestion server behavior.
type HTTPIngestOptions struct {
	// Bind address, e.g. "127.0.0.1:8081"
	Bind string
	// Token for Authorization: Bearer <token> header. Empty disables auth.
	Token string
	// Dir to write accepted documents into (watched by the folder ingestor)
	Dir string
	// RPS is max requests per second. 0 disables rate limiting.
	RPS float64
	// Burst is the token bucket size. If 0 and RPS>0, defaults to ceil(RPS).
	Burst int
	// Logger for minimal logs (optional)
	Logger *log.Logger
	// MaxBodyBytes caps request body size; defaults to 25 MiB.
	MaxBodyBytes int64
}

// HTTPIngestServer provides POST /ingest for claim documents written
// atomically to Dir.
type HTTPIngestServer struct {
	srv     *http.Server
	opts    HTTPIngestOptions
	limiter *rate.Limiter
	logger  *log.Logger
	started int32
}

// Ack is the response body of an accepted upload.
type Ack struct {
	Ack     string `json:"ack"`
	File    string `json:"file"`
	ClaimID string `json:"claimId,omitempty"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewHTTPIngestServer constructs a new HTTP server for ingestion.
func NewHTTPIngestServer(opts HTTPIngestOptions) (*HTTPIngestServer, error) {
	if opts.Bind == "" {
		opts.Bind = "127.0.0.1:8081"
	}
	if opts.Dir == "" {
		opts.Dir = "data/incoming"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 25 * 1024 * 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[http-ingest] ", log.LstdFlags)
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create ingest dir: %w", err)
	}
	var lim *rate.Limiter
	if opts.RPS > 0 {
		if opts.Burst <= 0 {
			opts.Burst = int(opts.RPS + 0.999)
		}
		lim = rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)
	}
	his := &HTTPIngestServer{
		opts:    opts,
		limiter: lim,
		logger:  logger,
	}

	his.srv = &http.Server{
		Addr:         opts.Bind,
		Handler:      his.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return his, nil
}

// Handler exposes the ingest routes for embedding or tests.
func (h *HTTPIngestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", h.handleIngest)
	return mux
}

// Start starts the HTTP server concurrently and attaches to ctx for shutdown.
func (h *HTTPIngestServer) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&h.started, 0, 1) {
		return errors.New("http ingest server already started")
	}
	// Bind early to surface errors synchronously
	ln, err := net.Listen("tcp", h.opts.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.opts.Bind, err)
	}
	h.logger.Printf("HTTP ingest listening on http://%s, dir=%s rps=%g burst=%d auth=%v",
		h.opts.Bind, h.opts.Dir, h.opts.RPS, h.opts.Burst, h.opts.Token != "")

	go func() {
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.srv.Shutdown(shutdownCtx); err != nil {
			h.logger.Printf("graceful shutdown failed: %v", err)
		}
	}()
	return nil
}

// handleIngest accepts POST /ingest with the raw document as body. The file
// name comes from X-Filename and the target claim from X-Claim-ID.
func (h *HTTPIngestServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.opts.Token != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) != h.opts.Token {
			w.Header().Set("WWW-Authenticate", `Bearer realm="claims-console"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	if h.limiter != nil {
		waitCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.limiter.Wait(waitCtx)
		cancel()
		if err != nil {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	filename := filepath.Base(strings.TrimSpace(r.Header.Get("X-Filename")))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		http.Error(w, "missing X-Filename header", http.StatusBadRequest)
		return
	}
	if store.DocumentKind(filename) == "" {
		http.Error(w, "unsupported file type; accepted: "+strings.Join(store.AcceptedKinds, ", "), http.StatusUnsupportedMediaType)
		return
	}
	claimID := strings.TrimSpace(r.Header.Get("X-Claim-ID"))
	if claimID != "" && !isDigits(claimID) {
		http.Error(w, "invalid X-Claim-ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusRequestEntityTooLarge)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	ack := uuid.New().String()
	finalName := storedName(claimID, ack, filename, time.Now())
	if err := writeAtomic(h.opts.Dir, finalName, body); err != nil {
		h.logger.Printf("write %s: %v", finalName, err)
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(Ack{Ack: ack, File: finalName, ClaimID: claimID})

	h.logger.Printf("accepted ack=%s bytes=%d claim=%q path=%s remote=%s dur=%s",
		ack, len(body), claimID, finalName, remoteIP(r.RemoteAddr), time.Since(start).String())
}

// storedName builds the drop-folder name. The claim prefix is what the
// folder ingestor uses to route the document.
func storedName(claimID, ack, filename string, now time.Time) string {
	safe := unsafeName.ReplaceAllString(filename, "_")
	name := fmt.Sprintf("%s-%s-%s", now.UTC().Format("20060102T150405Z"), ack[:8], safe)
	if claimID != "" {
		name = "claim-" + claimID + "_" + name
	}
	return name
}

// writeAtomic writes via a temp file and rename so watchers never see a
// partial document.
func writeAtomic(dir, name string, body []byte) error {
	tmpFile, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(body); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// remoteIP extracts ip from host:port
func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
