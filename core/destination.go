package core

import (
	"context"
	"sync"
)

// Destination is anything capable of accepting a message for further
// processing. Implementations are provided by transport plugins, in-process
// channels, or test doubles.
type Destination interface {
	Accept(ctx context.Context, msg *Message) error
}

// DestinationFunc adapts a plain function to the Destination interface.
type DestinationFunc func(ctx context.Context, msg *Message) error

func (f DestinationFunc) Accept(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Resolver maps a symbolic name to a Destination. Implementations range from
// the in-memory Registry below to transport-backed resolvers provided by
// plugins.
type Resolver interface {
	Resolve(name string) (Destination, error)
}

// DefaultErrorDestinationName is the well-known name looked up via the
// Resolver when a failed release carries no usable error-destination header.
const DefaultErrorDestinationName = "errors"

// Registry is an in-memory, concurrency-safe Resolver.
type Registry struct {
	mu           sync.RWMutex
	destinations map[string]Destination
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{destinations: make(map[string]Destination)}
}

// Register adds a named destination, replacing any previous entry.
func (r *Registry) Register(name string, d Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destinations[name] = d
}

// Resolve returns the destination registered under name, or
// ErrDestinationNotFound.
func (r *Registry) Resolve(name string) (Destination, error) {
	r.mu.RLock()
	d, ok := r.destinations[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrDestinationNotFound
	}
	return d, nil
}
