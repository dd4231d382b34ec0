package cache

import (
	"context"
	"sync"

	"github.com/brandpulse/okrops/internal/model"
)

// CommitFunc dispatches the mutation to the durable store.
type CommitFunc func(ctx context.Context) error

// ApplyFunc transforms one cached view. It receives a private copy and
// returns the replacement; returning the input unchanged is fine.
type ApplyFunc func(key Key, objectives []*model.Objective) []*model.Objective

// Synchronizer owns the cache and applies mutations optimistically:
// snapshot, apply locally, dispatch, then confirm-and-invalidate on success
// or restore the snapshots on failure. Mutations over a given key are
// serialized; disjoint key sets proceed concurrently.
type Synchronizer struct {
	store *store

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		store: newStore(),
		locks: make(map[Key]*sync.Mutex),
	}
}

// Read returns the cached view for key, or ok=false when the entry is
// missing or was invalidated after a confirmed mutation.
func (s *Synchronizer) Read(key Key) ([]*model.Objective, bool) {
	return s.store.read(key)
}

// Fill populates a view after a fetch from the durable store. This is the
// read path; mutations never use it.
func (s *Synchronizer) Fill(key Key, objectives []*model.Objective) {
	s.store.write(key, objectives)
}

// Invalidate marks a view stale so the next Read misses and refetches.
func (s *Synchronizer) Invalidate(key Key) {
	s.store.invalidate(key)
}

// Mutate runs the optimistic protocol over the affected keys. On a commit
// failure every view is restored to its pre-mutation snapshot and the
// failure is returned wrapped in CommitError; no partial application
// remains visible.
func (s *Synchronizer) Mutate(ctx context.Context, keys []Key, apply ApplyFunc, commit CommitFunc) error {
	ordered := sortedKeys(keys)

	for _, key := range ordered {
		s.keyLock(key).Lock()
	}
	defer func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			s.keyLock(ordered[i]).Unlock()
		}
	}()

	type snap struct {
		objectives []*model.Objective
		existed    bool
	}
	snapshots := make(map[Key]snap, len(ordered))

	for _, key := range ordered {
		view, existed := s.store.snapshot(key)
		// Clone before apply runs; apply may mutate the view in place and
		// the snapshot must stay pristine for rollback.
		snapshots[key] = snap{objectives: cloneView(view), existed: existed}

		if existed {
			s.store.write(key, apply(key, view))
		}
	}

	err := commit(ctx)
	if err != nil {
		for _, key := range ordered {
			sn := snapshots[key]
			s.store.restore(key, sn.objectives, sn.existed)
		}
		return &CommitError{Cause: err}
	}

	// The store may have applied defaulting the cache does not know about;
	// confirmed entries go stale so the next read refetches.
	for _, key := range ordered {
		s.store.invalidate(key)
	}
	return nil
}

func (s *Synchronizer) keyLock(key Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}
