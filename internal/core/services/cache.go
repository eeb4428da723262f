package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// SessionCache keeps one loaded session per user across queries.
// Sessions are never shared between users.
//
// Loads run outside the map lock and are deduplicated per user, so a slow
// load for one user never blocks lookups for another. The write lock is held
// only while a finished session is installed.
type SessionCache struct {
	store driven.IndexStore
	loads singleflight.Group

	mu       sync.RWMutex
	sessions map[string]*IndexSession
	// generations counts invalidations per user. A load started before an
	// invalidation is returned to its callers but not installed.
	generations map[string]uint64
}

// NewSessionCache creates an empty cache.
func NewSessionCache(store driven.IndexStore) *SessionCache {
	return &SessionCache{
		store:       store,
		sessions:    make(map[string]*IndexSession),
		generations: make(map[string]uint64),
	}
}

// Session returns the user's cached session, loading it on first use.
// Concurrent first calls for one user share a single load. A failed load
// is not cached.
func (c *SessionCache) Session(ctx context.Context, userID string) (*IndexSession, error) {
	c.mu.RLock()
	s, ok := c.sessions[userID]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := c.loads.Do(userID, func() (any, error) {
		c.mu.RLock()
		gen := c.generations[userID]
		c.mu.RUnlock()

		s := NewIndexSession(c.store)
		if err := s.Load(ctx, userID); err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if cached, ok := c.sessions[userID]; ok {
			return cached, nil
		}
		if c.generations[userID] == gen {
			c.sessions[userID] = s
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*IndexSession), nil
}

// Invalidate drops the user's session so the next query reloads it.
// A load already in flight is not installed.
func (c *SessionCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.generations[userID]++
	c.mu.Unlock()
	c.loads.Forget(userID)
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
