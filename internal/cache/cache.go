// Package cache holds locally cached objective list views and the
// optimistic mutation protocol that keeps them consistent with the durable
// store. The store inside this package is only ever written through the
// Synchronizer; every other component reads through it.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/brandpulse/okrops/internal/model"
)

// Key identifies one cached query result, e.g. tenant+brand+filter set.
type Key string

// NewKey builds a deterministic key from the tenant/brand scope and any
// extra filter parts.
func NewKey(tenantID, brandID string, filters ...string) Key {
	parts := append([]string{tenantID, brandID}, filters...)
	return Key(strings.Join(parts, "|"))
}

type entry struct {
	objectives []*model.Objective
	stale      bool
}

// store is the cache map. Guarded by mu; all access goes through the
// Synchronizer's methods.
type store struct {
	mu      sync.RWMutex
	entries map[Key]*entry
}

func newStore() *store {
	return &store{entries: make(map[Key]*entry)}
}

func (s *store) read(key Key) ([]*model.Objective, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return cloneView(e.objectives), true
}

func (s *store) write(key Key, objectives []*model.Objective) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{objectives: cloneView(objectives)}
}

func (s *store) snapshot(key Key) ([]*model.Objective, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return cloneView(e.objectives), true
}

func (s *store) restore(key Key, objectives []*model.Objective, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !existed {
		delete(s.entries, key)
		return
	}
	s.entries[key] = &entry{objectives: objectives}
}

func (s *store) invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.stale = true
	}
}

// cloneView copies the slice and every objective so snapshots cannot alias
// live cache state.
func cloneView(objectives []*model.Objective) []*model.Objective {
	if objectives == nil {
		return nil
	}
	out := make([]*model.Objective, len(objectives))
	for i, o := range objectives {
		copied := *o
		out[i] = &copied
	}
	return out
}

// sortedKeys returns a deduplicated, ordered copy. Locks are always taken
// in this order so concurrent mutations over overlapping key sets cannot
// deadlock.
func sortedKeys(keys []Key) []Key {
	seen := make(map[Key]bool, len(keys))
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CommitError wraps whatever the durable store reported when a dispatch
// failed; the cache has already been rolled back by the time the caller
// sees it.
type CommitError struct {
	Cause error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("external commit failed: %v", e.Cause)
}

func (e *CommitError) Unwrap() error {
	return e.Cause
}
