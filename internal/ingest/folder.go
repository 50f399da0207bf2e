package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// DefaultIntakeClaim names the claim that collects dropped files carrying no
// claim prefix.
const DefaultIntakeClaim = "Ingested Documents"

// claimPrefix matches "claim-<id>_" at the start of a dropped file name.
var claimPrefix = regexp.MustCompile(`^claim-(\d+)_`)

// ClaimIDFromName returns the claim id encoded in a dropped file name.
func ClaimIDFromName(name string) (string, bool) {
	m := claimPrefix.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FolderOptions controls ingest-folder behavior.
type FolderOptions struct {
	Dir   string
	Watch bool
	// ClaimID receives files without a claim prefix. When empty, a claim
	// named ClaimName is found or created on first use.
	ClaimID   string
	ClaimName string
	Logger    *log.Logger
	// SkipExisting ignores files already present when watching starts.
	SkipExisting bool
}

// FolderIngestor attaches claim documents dropped into a directory
// (one-shot or watch mode).
type FolderIngestor struct {
	store *store.Store
	bus   bus.Bus
	opts  FolderOptions

	mu      sync.Mutex
	claimID string
	seen    map[string]time.Time // path -> mod time at ingest

	ingested int
	skipped  int
	errors   int
}

// NewFolderIngestor constructs a folder ingestor.
func NewFolderIngestor(st *store.Store, b bus.Bus, opts FolderOptions) *FolderIngestor {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[ingest-folder] ", log.LstdFlags)
	}
	if opts.ClaimName == "" {
		opts.ClaimName = DefaultIntakeClaim
	}
	return &FolderIngestor{
		store:   st,
		bus:     b,
		opts:    opts,
		claimID: opts.ClaimID,
		seen:    make(map[string]time.Time),
	}
}

// Stats returns ingested, skipped and failed file counts.
func (fi *FolderIngestor) Stats() (ingested, skipped, failed int) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.ingested, fi.skipped, fi.errors
}

// Run executes the ingestion per options (one-shot or watch).
func (fi *FolderIngestor) Run(ctx context.Context) error {
	if err := os.MkdirAll(fi.opts.Dir, 0755); err != nil {
		return fmt.Errorf("create ingest dir: %w", err)
	}

	if fi.opts.Watch && fi.opts.SkipExisting {
		fi.markExisting()
	} else if err := fi.scanOnce(ctx); err != nil {
		return err
	}

	if !fi.opts.Watch {
		ingested, skipped, failed := fi.Stats()
		fi.opts.Logger.Printf("Completed one-shot ingest: ingested=%d skipped=%d errors=%d", ingested, skipped, failed)
		return nil
	}

	return fi.watchLoop(ctx)
}

func (fi *FolderIngestor) markExisting() {
	entries, err := os.ReadDir(fi.opts.Dir)
	if err != nil {
		return
	}
	fi.mu.Lock()
	defer fi.mu.Unlock()
	for _, e := range entries {
		if info, err := e.Info(); err == nil && !e.IsDir() {
			fi.seen[filepath.Join(fi.opts.Dir, e.Name())] = info.ModTime()
		}
	}
}

func (fi *FolderIngestor) scanOnce(ctx context.Context) error {
	entries, err := os.ReadDir(fi.opts.Dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fi.handleFile(ctx, filepath.Join(fi.opts.Dir, e.Name()))
	}
	return nil
}

func (fi *FolderIngestor) watchLoop(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	if err := w.Add(fi.opts.Dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}

	fi.opts.Logger.Printf("Watching directory: %s", fi.opts.Dir)

	for {
		select {
		case <-ctx.Done():
			ingested, skipped, failed := fi.Stats()
			fi.opts.Logger.Printf("Watch stopping: ingested=%d skipped=%d errors=%d", ingested, skipped, failed)
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				fi.handleFile(ctx, ev.Name)
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				fi.mu.Lock()
				delete(fi.seen, ev.Name)
				fi.mu.Unlock()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fi.opts.Logger.Printf("watch error: %v", err)
		}
	}
}

// handleFile ingests path unless it is unsupported or unchanged since it was
// last ingested.
func (fi *FolderIngestor) handleFile(ctx context.Context, path string) {
	name := filepath.Base(path)
	kind := store.DocumentKind(name)
	if kind == "" {
		fi.mu.Lock()
		fi.skipped++
		fi.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Transiently missing after a rename.
		return
	}

	fi.mu.Lock()
	if mod, ok := fi.seen[path]; ok && !info.ModTime().After(mod) {
		fi.mu.Unlock()
		return
	}
	fi.seen[path] = info.ModTime()
	fi.mu.Unlock()

	if err := fi.ingestFile(ctx, name, kind, info.Size()); err != nil {
		fi.opts.Logger.Printf("error ingesting %s: %v", path, err)
		fi.mu.Lock()
		fi.errors++
		fi.mu.Unlock()
		return
	}
	fi.mu.Lock()
	fi.ingested++
	fi.mu.Unlock()
}

func (fi *FolderIngestor) ingestFile(ctx context.Context, name, kind string, size int64) error {
	claimID, ok := ClaimIDFromName(name)
	if !ok {
		var err error
		if claimID, err = fi.ensureClaim(ctx); err != nil {
			return err
		}
	}

	_, err := attachDocument(ctx, fi.store, fi.bus, fi.opts.Logger, store.Document{
		ClaimID:  claimID,
		FileName: name,
		Size:     size,
		Kind:     kind,
	}, "folder")
	return err
}

// ensureClaim resolves the intake claim, creating it on first use.
func (fi *FolderIngestor) ensureClaim(ctx context.Context) (string, error) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if fi.claimID != "" {
		return fi.claimID, nil
	}

	claims, err := fi.store.SearchClaims(ctx, fi.opts.ClaimName)
	if err != nil {
		return "", err
	}
	for _, c := range claims {
		if c.Name == fi.opts.ClaimName {
			fi.claimID = c.ID
			return c.ID, nil
		}
	}

	c, err := fi.store.AddClaim(ctx, fi.opts.ClaimName, 0)
	if err != nil {
		return "", err
	}
	if c.ID == "" {
		return "", errors.New("failed to create intake claim")
	}
	fi.claimID = c.ID
	_ = fi.bus.PublishStatus(ctx, bus.StatusMessage{ClaimID: c.ID, Status: store.StatusProcessing})
	return c.ID, nil
}
