package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"news-detector/models"
)

// Analyzer produces an outcome for one request. It must not fail; errors
// are already folded into the outcome.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) models.Outcome
}

// Manager drives session transitions through a Store and announces every
// committed snapshot on its Hub.
type Manager struct {
	store    Store
	analyzer Analyzer
	hub      *Hub
	now      func() time.Time
}

func NewManager(store Store, analyzer Analyzer) *Manager {
	return &Manager{
		store:    store,
		analyzer: analyzer,
		hub:      NewHub(),
		now:      time.Now,
	}
}

func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) Hub() *Hub { return m.hub }

func (m *Manager) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	return m.store.Get(ctx, sessionID)
}

// Submit moves the session to pending and returns the pending snapshot,
// whose RequestID identifies the call about to be made.
func (m *Manager) Submit(ctx context.Context, sessionID string, req models.AnalysisRequest) (Snapshot, error) {
	snap, err := m.store.Update(ctx, sessionID, func(s Snapshot) (Snapshot, error) {
		return s.Submit(req, m.now())
	})
	if err != nil {
		return snap, err
	}
	log.Printf("[SESSION] %s: request #%d pending (%s)", sessionID, snap.RequestID, req.Mode)
	m.hub.Publish(snap)
	return snap, nil
}

// Resolve commits the outcome of request id. Stale ids return ErrStale
// together with the current snapshot.
func (m *Manager) Resolve(ctx context.Context, sessionID string, id uint64, outcome models.Outcome) (Snapshot, error) {
	snap, err := m.store.Update(ctx, sessionID, func(s Snapshot) (Snapshot, error) {
		return s.Resolve(id, outcome, m.now())
	})
	if errors.Is(err, ErrStale) {
		log.Printf("[SESSION] %s: discarded stale result of request #%d (latest #%d, %s)", sessionID, id, snap.RequestID, snap.State)
		return snap, err
	}
	if err != nil {
		return snap, err
	}
	log.Printf("[SESSION] %s: request #%d %s", sessionID, id, snap.State)
	m.hub.Publish(snap)
	return snap, nil
}

// Run submits, performs the analysis and resolves. The analysis is not
// tied to ctx cancellation: once issued, a call runs to completion (bounded
// by the client's timeout) and its result is committed or discarded by
// request id.
func (m *Manager) Run(ctx context.Context, sessionID string, req models.AnalysisRequest) (Snapshot, error) {
	pending, err := m.Submit(ctx, sessionID, req)
	if err != nil {
		return pending, err
	}

	detached := context.WithoutCancel(ctx)
	outcome := m.analyzer.Analyze(detached, req)

	snap, err := m.Resolve(detached, sessionID, pending.RequestID, outcome)
	if err == nil || errors.Is(err, ErrStale) {
		return snap, err
	}
	// A failed write would leave the session pending and reject every
	// resubmit until the TTL runs out, so try once more.
	log.Printf("[SESSION] %s: storing result of request #%d failed, retrying: %v", sessionID, pending.RequestID, err)
	snap, err = m.Resolve(detached, sessionID, pending.RequestID, outcome)
	if err != nil && !errors.Is(err, ErrStale) {
		log.Printf("[SESSION] %s: stuck pending until reset (DELETE /api/session/%s) or expiry: %v", sessionID, sessionID, err)
	}
	return snap, err
}

// Reset returns the session to idle (view unmounted).
func (m *Manager) Reset(ctx context.Context, sessionID string) (Snapshot, error) {
	snap, err := m.store.Update(ctx, sessionID, func(s Snapshot) (Snapshot, error) {
		return s.Reset(m.now()), nil
	})
	if err != nil {
		return snap, err
	}
	m.hub.Publish(snap)
	return snap, nil
}
