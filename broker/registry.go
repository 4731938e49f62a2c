package broker

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/miladsoleymani/mqtttester/core"
)

// ErrUnknownBroker is returned by Create for names nobody registered.
var ErrUnknownBroker = errors.New("mqtttester: unknown broker")

// Factory creates a Transport from the given Config.
type Factory func(cfg Config) (core.Transport, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a named transport factory. Plugins call this from init().
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Create instantiates a transport by name using the registered factory.
func Create(name string, cfg Config) (core.Transport, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBroker, name)
	}
	return f(cfg)
}

// Names lists the registered transports in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
