package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// ErrUnsupportedFile is returned when an upload is not an accepted document
// kind.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Upload is a document handed in through the dashboard, CLI or API.
type Upload struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Intake registers claims and documents and hands them to the processor.
type Intake struct {
	store  *store.Store
	bus    bus.Bus
	logger *log.Logger
}

// NewIntake constructs an intake.
func NewIntake(st *store.Store, b bus.Bus, logger *log.Logger) *Intake {
	if logger == nil {
		logger = log.New(log.Writer(), "[intake] ", log.LstdFlags)
	}
	return &Intake{store: st, bus: b, logger: logger}
}

// CreateClaim adds a processing claim with its documents. Claims without
// documents are still announced so they settle to ready.
func (in *Intake) CreateClaim(ctx context.Context, name, actor string, uploads []Upload) (store.Claim, error) {
	if err := checkUploads(uploads); err != nil {
		return store.Claim{}, err
	}
	c, err := in.store.AddClaim(ctx, name, 0)
	if err != nil {
		return store.Claim{}, err
	}
	for _, u := range uploads {
		if _, err := in.attach(ctx, c.ID, u, "upload"); err != nil {
			return store.Claim{}, err
		}
	}
	if err := in.store.LogClaimAction(ctx, c.ID, store.ActionClaimCreated, actor, map[string]interface{}{
		"name":  c.Name,
		"files": len(uploads),
	}); err != nil {
		in.logger.Printf("audit claim %s: %v", c.ID, err)
	}
	in.announce(ctx, c.ID)
	in.logger.Printf("Created claim %s %q with %d documents", c.ID, c.Name, len(uploads))
	return in.store.GetClaim(ctx, c.ID)
}

// AddDocuments attaches uploads to an existing claim and sends it back to
// processing.
func (in *Intake) AddDocuments(ctx context.Context, claimID, actor string, uploads []Upload) ([]store.Document, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("failed to add documents: no files")
	}
	if err := checkUploads(uploads); err != nil {
		return nil, err
	}
	if _, err := in.store.GetClaim(ctx, claimID); err != nil {
		return nil, err
	}
	if err := in.store.UpdateClaimStatus(ctx, claimID, store.StatusProcessing, nil); err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(uploads))
	for _, u := range uploads {
		d, err := in.attach(ctx, claimID, u, "upload")
		if err != nil {
			return docs, err
		}
		docs = append(docs, d)
	}
	in.announce(ctx, claimID)
	return docs, nil
}

func (in *Intake) attach(ctx context.Context, claimID string, u Upload, source string) (store.Document, error) {
	return attachDocument(ctx, in.store, in.bus, in.logger, store.Document{
		ClaimID:  claimID,
		FileName: u.Name,
		Size:     u.Size,
	}, source)
}

func (in *Intake) announce(ctx context.Context, claimID string) {
	if err := in.bus.PublishStatus(ctx, bus.StatusMessage{ClaimID: claimID, Status: store.StatusProcessing}); err != nil {
		in.logger.Printf("publish status for %s: %v", claimID, err)
	}
}

// attachDocument records a document and publishes it. The publish is best
// effort; the catalog row is the source of truth.
func attachDocument(ctx context.Context, st *store.Store, b bus.Bus, logger *log.Logger, doc store.Document, source string) (store.Document, error) {
	doc, err := st.AddDocument(ctx, doc)
	if err != nil {
		return store.Document{}, err
	}
	if err := b.PublishDocument(ctx, bus.DocumentMessage{
		ClaimID:    doc.ClaimID,
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		Kind:       doc.Kind,
		Size:       doc.Size,
		Source:     source,
	}); err != nil {
		logger.Printf("publish %s: %v", doc.FileName, err)
	}
	return doc, nil
}

func checkUploads(uploads []Upload) error {
	var bad []string
	for _, u := range uploads {
		if store.DocumentKind(u.Name) == "" {
			bad = append(bad, u.Name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedFile,
			strings.Join(bad, ", "), strings.Join(store.AcceptedKinds, ", "))
	}
	return nil
}
