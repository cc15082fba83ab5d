package arbor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrKindRegistered   = errors.New("arbor: node kind already registered")
	ErrKindUnregistered = errors.New("arbor: node kind not registered")
	ErrRegistrySealed   = errors.New("arbor: registry is sealed")
)

// NodeFactory builds a node of one kind. It usually configures layout mode,
// hooks and defaults on n before returning it.
type NodeFactory func(name string) *Node

// Registry maps node kind names to factories. Create one at startup,
// register every kind, then Seal it before building trees. There is no
// package-level registry: pass the one you built to whatever constructs
// nodes by kind.
type Registry struct {
	mu     sync.RWMutex
	kinds  map[string]NodeFactory
	sealed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]NodeFactory)}
}

// Register adds a factory for kind. It fails on an empty kind, a nil
// factory, a duplicate or a sealed registry.
func (r *Registry) Register(kind string, f NodeFactory) error {
	if kind == "" || f == nil {
		return fmt.Errorf("arbor: invalid registration for kind %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: %q", ErrRegistrySealed, kind)
	}
	if _, ok := r.kinds[kind]; ok {
		return fmt.Errorf("%w: %q", ErrKindRegistered, kind)
	}
	r.kinds[kind] = f
	return nil
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// New builds a node of the given kind.
func (r *Registry) New(kind, name string) (*Node, error) {
	r.mu.RLock()
	f, ok := r.kinds[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKindUnregistered, kind)
	}
	n := f(name)
	if n == nil {
		return nil, fmt.Errorf("arbor: factory for %q returned nil", kind)
	}
	return n, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
