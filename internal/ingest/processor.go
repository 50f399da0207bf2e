package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// Defaults for the simulated document analysis.
const (
	DefaultProcessingDelay = 3 * time.Second
	DefaultTotalBilled     = 185000.0
)

// ProcessorOptions controls the simulated analysis step.
type ProcessorOptions struct {
	Delay       time.Duration
	TotalBilled float64
	Group       string
	Consumer    string
	Logger      *log.Logger
}

// Processor turns processing claims ready once their documents have
// settled. Analysis is simulated: after Delay without new documents the
// claim is marked ready with a fixed billed total.
type Processor struct {
	store *store.Store
	bus   bus.Bus
	opts  ProcessorOptions

	mu     sync.Mutex
	timers map[string]*time.Timer
	ctx    context.Context
}

// NewProcessor constructs a processor.
func NewProcessor(st *store.Store, b bus.Bus, opts ProcessorOptions) *Processor {
	if opts.Delay <= 0 {
		opts.Delay = DefaultProcessingDelay
	}
	if opts.TotalBilled <= 0 {
		opts.TotalBilled = DefaultTotalBilled
	}
	if opts.Group == "" {
		opts.Group = "processor"
	}
	if opts.Consumer == "" {
		opts.Consumer = "processor-1"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[processor] ", log.LstdFlags)
	}
	return &Processor{
		store:  st,
		bus:    b,
		opts:   opts,
		timers: make(map[string]*time.Timer),
	}
}

// Run consumes document and status streams until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
	defer p.stopTimers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.bus.ReadDocumentsStream(gctx, p.opts.Group, p.opts.Consumer, p.handleDocument)
	})
	g.Go(func() error {
		return p.bus.ReadStatusStream(gctx, p.opts.Group, p.opts.Consumer, p.handleStatus)
	})
	return g.Wait()
}

func (p *Processor) handleDocument(ctx context.Context, msg bus.DocumentMessage) error {
	if err := p.store.AddAuditEntry(ctx, store.AuditEntry{
		ClaimID: msg.ClaimID,
		Action:  store.ActionDocumentAdded,
		Details: map[string]interface{}{
			"file":   msg.FileName,
			"kind":   msg.Kind,
			"size":   msg.Size,
			"source": msg.Source,
		},
	}); err != nil {
		p.opts.Logger.Printf("audit document %s: %v", msg.FileName, err)
	}

	c, err := p.store.GetClaim(ctx, msg.ClaimID)
	if err != nil {
		return err
	}
	if c.Status == store.StatusProcessing {
		p.Schedule(c.ID)
	}
	return nil
}

func (p *Processor) handleStatus(ctx context.Context, msg bus.StatusMessage) error {
	if msg.Status == store.StatusProcessing {
		p.Schedule(msg.ClaimID)
	}
	return nil
}

// Schedule (re)starts the settle timer for a claim.
func (p *Processor) Schedule(claimID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[claimID]; ok {
		t.Stop()
	}
	p.timers[claimID] = time.AfterFunc(p.opts.Delay, func() { p.complete(claimID) })
}

// Pending reports how many claims await completion.
func (p *Processor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

func (p *Processor) complete(claimID string) {
	p.mu.Lock()
	delete(p.timers, claimID)
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	total := p.opts.TotalBilled
	status := store.StatusReady
	if err := p.store.UpdateClaimStatus(ctx, claimID, status, &total); err != nil {
		p.opts.Logger.Printf("complete claim %s: %v", claimID, err)
		status = store.StatusError
		if err := p.store.UpdateClaimStatus(ctx, claimID, status, nil); err != nil {
			return
		}
	}

	msg := bus.StatusMessage{ClaimID: claimID, Status: status}
	if status == store.StatusReady {
		msg.TotalBilled = &total
	}
	if err := p.bus.PublishStatus(ctx, msg); err != nil {
		p.opts.Logger.Printf("publish status for %s: %v", claimID, err)
	}
	if err := p.store.LogClaimAction(ctx, claimID, store.ActionClaimReady, "system", map[string]interface{}{
		"status":      status,
		"totalBilled": total,
	}); err != nil {
		p.opts.Logger.Printf("audit claim %s: %v", claimID, err)
	}
	p.opts.Logger.Printf("Claim %s is %s", claimID, status)
}

func (p *Processor) stopTimers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}
