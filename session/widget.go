// Package session owns the per-widget outcome slot: a small state machine
// {idle, pending, succeeded, failed} keyed by session id, its storage, and
// fan-out of transitions to live subscribers.
package session

import (
	"errors"
	"time"

	"news-detector/models"
)

type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var (
	// ErrPending rejects a submission while the previous call is in flight.
	ErrPending = errors.New("analysis already in progress")
	// ErrStale marks a resolution whose request id is no longer the latest.
	ErrStale = errors.New("stale analysis result discarded")
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")
)

// Snapshot is the complete state of one session. Transitions are pure
// methods returning the next snapshot so they can be driven
// deterministically and applied atomically by a Store.
type Snapshot struct {
	SessionID string                  `json:"session_id"`
	State     State                   `json:"state"`
	RequestID uint64                  `json:"request_id"`
	Request   *models.AnalysisRequest `json:"request,omitempty"`
	Outcome   models.Outcome          `json:"outcome"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func NewSnapshot(sessionID string, now time.Time) Snapshot {
	return Snapshot{
		SessionID: sessionID,
		State:     StateIdle,
		Outcome:   models.NoOutcome(),
		UpdatedAt: now,
	}
}

// Submit moves to pending under a fresh request id and clears the previous
// outcome.
func (s Snapshot) Submit(req models.AnalysisRequest, now time.Time) (Snapshot, error) {
	if s.State == StatePending {
		return s, ErrPending
	}
	next := s
	next.State = StatePending
	next.RequestID = s.RequestID + 1
	next.Request = &req
	next.Outcome = models.NoOutcome()
	next.UpdatedAt = now
	return next, nil
}

// Resolve applies the outcome of request id. Only the latest pending
// request may resolve; anything else is stale.
func (s Snapshot) Resolve(id uint64, outcome models.Outcome, now time.Time) (Snapshot, error) {
	if s.State != StatePending || id != s.RequestID {
		return s, ErrStale
	}
	next := s
	if outcome.Succeeded() {
		next.State = StateSucceeded
		next.Outcome = outcome
	} else {
		next.State = StateFailed
		next.Outcome = models.ErrorOutcome()
	}
	next.UpdatedAt = now
	return next, nil
}

// Reset discards any outcome and returns to idle. The request id is kept so
// a call still in flight resolves as stale.
func (s Snapshot) Reset(now time.Time) Snapshot {
	next := s
	next.State = StateIdle
	next.Request = nil
	next.Outcome = models.NoOutcome()
	next.UpdatedAt = now
	return next
}
