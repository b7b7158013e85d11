package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store keeps session snapshots in Redis. Every write refreshes the TTL so
// abandoned sessions expire on their own.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore initializes a Redis-backed session store.
func NewStore(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }

// TTL reports the remaining lifetime of a stored session.
func (s *Store) TTL(ctx context.Context, id string) (time.Duration, error) {
	return s.rdb.TTL(ctx, stateKey(id)).Result()
}

func stateKey(id string) string {
	return fmt.Sprintf("session:%s:state", id)
}

func (s *Store) Load(ctx context.Context, id string) (*models.SessionState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &state, nil
}

func (s *Store) Save(ctx context.Context, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, stateKey(state.ID), data, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, stateKey(id)).Err()
}
