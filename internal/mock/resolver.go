package mock

import (
	"sync"

	"github.com/delaymux/delaymux/core"
)

// Resolver is a test double for core.Resolver.
type Resolver struct {
	mu           sync.Mutex
	destinations map[string]core.Destination
	resolved     []string

	// ResolveErr, when set, is returned by every Resolve call.
	ResolveErr error
}

func NewResolver() *Resolver {
	return &Resolver{destinations: make(map[string]core.Destination)}
}

// Add registers a named destination.
func (r *Resolver) Add(name string, d core.Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destinations[name] = d
}

func (r *Resolver) Resolve(name string) (core.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, name)
	if r.ResolveErr != nil {
		return nil, r.ResolveErr
	}
	d, ok := r.destinations[name]
	if !ok {
		return nil, core.ErrDestinationNotFound
	}
	return d, nil
}

// Resolved returns the names looked up so far, in order.
func (r *Resolver) Resolved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.resolved))
	copy(out, r.resolved)
	return out
}
