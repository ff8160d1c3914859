package destination

import (
	"fmt"
	"sync"

	"github.com/delaymux/delaymux/core"
)

// Factory creates a Destination from the given Config.
type Factory func(cfg Config) (core.Destination, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a named destination factory. Plugins call this from init().
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Create instantiates a destination by name using the registered factory.
func Create(name string, cfg Config) (core.Destination, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("delaymux: unknown destination type %q", name)
	}
	return f(cfg)
}
