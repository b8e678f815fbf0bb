// Package sessions persists wizard sessions between requests.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mintsurvey/survey-service/internal/cache"
	"github.com/mintsurvey/survey-service/internal/survey"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "sessions:"

// Store loads and saves session snapshots.
type Store interface {
	Get(ctx context.Context, id string) (survey.Snapshot, error)
	Save(ctx context.Context, snap survey.Snapshot) error
	Delete(ctx context.Context, id string) error
}

// CacheStore keeps snapshots in a cache.CacheService. Every save refreshes
// the TTL, so a session expires after ttl of inactivity.
type CacheStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewCacheStore(c cache.CacheService, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

// NewMemoryStore is a CacheStore over the in-process cache.
func NewMemoryStore(ttl time.Duration) *CacheStore {
	return NewCacheStore(cache.NewMemoryCache(), ttl)
}

func (s *CacheStore) Get(ctx context.Context, id string) (survey.Snapshot, error) {
	var snap survey.Snapshot
	err := s.cache.Get(ctx, keyPrefix+id, &snap)
	if errors.Is(err, cache.ErrCacheMiss) {
		return survey.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return survey.Snapshot{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return snap, nil
}

func (s *CacheStore) Save(ctx context.Context, snap survey.Snapshot) error {
	if err := s.cache.Set(ctx, keyPrefix+snap.ID, snap, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", snap.ID, err)
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, keyPrefix+id)
}
