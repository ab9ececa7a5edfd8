package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UpdateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	snap, err := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) {
		assert.Equal(t, StateIdle, s.State)
		assert.Equal(t, "s1", s.SessionID)
		return s.Submit(textReq, t0)
	})
	require.NoError(t, err)
	assert.Equal(t, StatePending, snap.State)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestMemoryStore_UpdateErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	pending, _ := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) { return s.Submit(textReq, t0) })

	boom := errors.New("boom")
	current, err := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) {
		return Snapshot{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, pending, current)

	got, _ := store.Get(ctx, "s1")
	assert.Equal(t, pending, got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := t0
	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	_, err := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) { return s.Submit(textReq, now) })
	require.NoError(t, err)

	now = now.Add(9 * time.Minute)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	// an expired session starts over as idle
	snap, err := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) {
		assert.Equal(t, StateIdle, s.State)
		return s, nil
	})
	require.NoError(t, err)
	assert.Zero(t, snap.RequestID)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) { return s, nil })

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentSubmitOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "s1", func(s Snapshot) (Snapshot, error) { return s.Submit(textReq, t0) })
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	snap, _ := store.Get(ctx, "s1")
	assert.Equal(t, uint64(1), snap.RequestID)
}

func TestMemoryStore_SweepsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := t0
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		_, err := store.Update(ctx, NewSessionID(), func(s Snapshot) (Snapshot, error) { return s.Submit(textReq, now) })
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, store.Len())

	now = now.Add(24 * time.Hour)
	_, err := store.Update(ctx, "fresh", func(s Snapshot) (Snapshot, error) { return s, nil })
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SweepKeepsLiveSessions(t *testing.T) {
	ctx := context.Background()
	now := t0
	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	store.Update(ctx, "old", func(s Snapshot) (Snapshot, error) { return s, nil })
	now = now.Add(8 * time.Minute)
	store.Update(ctx, "recent", func(s Snapshot) (Snapshot, error) { return s, nil })

	now = now.Add(5 * time.Minute)
	store.Update(ctx, "new", func(s Snapshot) (Snapshot, error) { return s, nil })

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, "recent")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}
