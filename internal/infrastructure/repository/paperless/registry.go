package paperless

import (
	"context"
	"fmt"
	"sync"
)

// LabelAPI is the slice of the client the registry needs.
type LabelAPI interface {
	FindLabel(ctx context.Context, name string) (int, bool, error)
	CreateLabel(ctx context.Context, name string) (int, error)
}

// Registry caches label-name-to-id resolutions for one run, creating
// missing labels on first use. It keeps the outcome applier free of
// direct tag transport calls.
type Registry struct {
	api LabelAPI

	mu    sync.Mutex
	cache map[string]int
}

func NewRegistry(api LabelAPI) *Registry {
	return &Registry{api: api, cache: make(map[string]int)}
}

func (r *Registry) IDFor(ctx context.Context, name string) (int, error) {
	r.mu.Lock()
	if id, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	id, found, err := r.api.FindLabel(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("find label %q: %w", name, err)
	}
	if !found {
		id, err = r.api.CreateLabel(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("create label %q: %w", name, err)
		}
	}

	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
	return id, nil
}
