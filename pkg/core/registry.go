package core

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// storeRegistry maps role ids to their loaded stores.
//
// Stores are loaded lazily on first access. Loading happens outside the registry lock
// so a slow backend read for one role does not block the others, and concurrent first
// accesses to the same role share a single load. A failed load is not cached.
type storeRegistry struct {
	mu     sync.RWMutex
	stores map[string]*entityStore
	loads  singleflight.Group
	load   func(ctx context.Context, roleID string) (*entityStore, error)
}

func newStoreRegistry(load func(ctx context.Context, roleID string) (*entityStore, error)) *storeRegistry {
	return &storeRegistry{
		stores: make(map[string]*entityStore),
		load:   load,
	}
}

// get returns the store of roleID, loading it on a miss.
//
// The load is shared by every waiting caller, so it does not observe the
// cancellation of the caller that started it.
func (r *storeRegistry) get(ctx context.Context, roleID string) (*entityStore, error) {
	r.mu.RLock()
	s, ok := r.stores[roleID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.loads.Do(roleID, func() (interface{}, error) {
		r.mu.RLock()
		s, ok := r.stores[roleID]
		r.mu.RUnlock()
		if ok {
			return s, nil
		}

		loaded, err := r.load(loadCtx, roleID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if s, ok := r.stores[roleID]; ok {
			return s, nil
		}
		r.stores[roleID] = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entityStore), nil
}

// roles returns the ids of the loaded stores.
func (r *storeRegistry) roles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.stores))
	for id := range r.stores {
		ids = append(ids, id)
	}
	return ids
}
