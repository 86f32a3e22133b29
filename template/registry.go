package template

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry is a read-mostly template store. Lookups read an immutable
// snapshot through an atomic pointer, so concurrent reads never contend;
// mutations (Put/Remove/Reload) copy the snapshot under a mutex and swap
// it in. Construct with NewRegistry, then Reload when switching packs.
type Registry struct {
	mu       sync.Mutex // serializes writers only
	snapshot atomic.Pointer[registrySnapshot]

	hits   atomic.Uint64
	misses atomic.Uint64
}

type registrySnapshot struct {
	byContent map[ContentType]*Template
}

// NewRegistry creates an empty registry, optionally seeded with templates.
// Seeding errors (validation, duplicate content type) fail construction.
func NewRegistry(seed ...*Template) (*Registry, error) {
	r := &Registry{}
	r.snapshot.Store(&registrySnapshot{byContent: map[ContentType]*Template{}})
	if len(seed) > 0 {
		if err := r.Reload(seed); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Reload atomically replaces the full template set, e.g. when the
// surrounding application switches graphic packs. Readers observe either
// the old set or the new one, never a mix.
func (r *Registry) Reload(templates []*Template) error {
	next := map[ContentType]*Template{}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := next[t.ContentType]; dup {
			return fmt.Errorf("registry: duplicate template for content type %q", t.ContentType)
		}
		next[t.ContentType] = t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Store(&registrySnapshot{byContent: next})
	return nil
}

// Put inserts or replaces the active template for its content type.
func (r *Registry) Put(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	curr := r.snapshot.Load().byContent
	next := make(map[ContentType]*Template, len(curr)+1)
	for k, v := range curr {
		next[k] = v
	}
	next[t.ContentType] = t
	r.snapshot.Store(&registrySnapshot{byContent: next})
	return nil
}

// Remove drops the template for a content type, if present.
func (r *Registry) Remove(ct ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	curr := r.snapshot.Load().byContent
	next := make(map[ContentType]*Template, len(curr))
	for k, v := range curr {
		if k != ct {
			next[k] = v
		}
	}
	r.snapshot.Store(&registrySnapshot{byContent: next})
}

// ActiveTemplate returns the template registered for ct. The bool result
// distinguishes a miss; callers translate that into their own error.
func (r *Registry) ActiveTemplate(ctx context.Context, ct ContentType) (*Template, bool) {
	snap := r.snapshot.Load()
	t, ok := snap.byContent[ct]
	if ok {
		r.hits.Add(1)
	} else {
		r.misses.Add(1)
	}
	return t, ok
}

// Len reports the number of registered templates.
func (r *Registry) Len() int {
	return len(r.snapshot.Load().byContent)
}

// Stats returns cumulative lookup hit/miss counts.
func (r *Registry) Stats() (hits, misses uint64) {
	return r.hits.Load(), r.misses.Load()
}
