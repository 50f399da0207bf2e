package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Ashfaaq98/claims-console/internal/store"
)

// Sessions keeps the live report for each open claim so edits survive
// navigating away and back, until the entry expires.
type Sessions struct {
	provider *Provider
	cache    *cache.Cache
	mu       sync.Mutex
}

// NewSessions creates a session cache. A non-positive ttl keeps sessions
// until they are dropped.
func NewSessions(p *Provider, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl
	if cleanup == cache.NoExpiration || cleanup > 10*time.Minute {
		cleanup = 10 * time.Minute
	}
	return &Sessions{provider: p, cache: cache.New(ttl, cleanup)}
}

// Open returns the claim's live report, loading a fresh one if none exists.
// Each access renews the expiry.
func (s *Sessions) Open(c store.Claim) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(c.ID); ok {
		r := v.(*Report)
		s.cache.SetDefault(c.ID, r)
		return r
	}
	r := s.provider.Load(c)
	s.cache.SetDefault(c.ID, r)
	return r
}

// Get returns an existing session without creating one.
func (s *Sessions) Get(claimID string) (*Report, bool) {
	v, ok := s.cache.Get(claimID)
	if !ok {
		return nil, false
	}
	return v.(*Report), true
}

// Drop discards a claim's session; the next Open starts from the template.
func (s *Sessions) Drop(claimID string) {
	s.cache.Delete(claimID)
}

// Count is the number of live sessions.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

// OnEvicted registers a callback for expired or dropped sessions.
func (s *Sessions) OnEvicted(fn func(claimID string)) {
	s.cache.OnEvicted(func(k string, _ interface{}) { fn(k) })
}

// ClaimLookup resolves catalog records.
type ClaimLookup interface {
	GetClaim(ctx context.Context, id string) (store.Claim, error)
}

// Resolve opens the session for a catalog claim. Ids missing from the
// catalog get a placeholder record and so render the default report; such
// reports are not cached, so edits to them do not outlive the call.
func (s *Sessions) Resolve(ctx context.Context, claims ClaimLookup, id string) (*Report, error) {
	c, err := claims.GetClaim(ctx, id)
	switch {
	case errors.Is(err, store.ErrClaimNotFound):
		return s.provider.Load(store.Claim{ID: id, Name: "Claim " + id, Status: store.StatusReady}), nil
	case err != nil:
		return nil, err
	}
	return s.Open(c), nil
}
