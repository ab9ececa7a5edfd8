package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisKeyPrefix = "news-detector:session:"
	// maxTxAttempts bounds optimistic-lock retries when two writers race on
	// one session. This is a storage concern, not a completion retry.
	maxTxAttempts = 8
)

// RedisStore keeps snapshots as JSON under one key per session. Updates use
// WATCH/MULTI so a stale resolution can never overwrite a fresher state,
// even across replicas.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	raw, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeSnapshot(raw)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (Snapshot, error) {
	key := redisKey(id)

	var (
		result Snapshot
		fnErr  error
	)
	txf := func(tx *redis.Tx) error {
		current := NewSnapshot(id, s.now())
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get: %w", err)
		default:
			if current, err = decodeSnapshot(raw); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil {
			result, fnErr = current, err
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result, fnErr = next, nil
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		return result, fnErr
	}
	return Snapshot{}, fmt.Errorf("redis update %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func decodeSnapshot(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
