package block

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateType is returned when block type is registered twice.
	ErrDuplicateType = errors.New("block type already registered")
	// ErrUnknownType is returned when block type is not registered.
	ErrUnknownType = errors.New("unknown block type")
)

// Kind is the role of block type in the pipeline.
type Kind int

const (
	// KindSource blocks are executed first.
	KindSource Kind = iota
	// KindTransformer blocks are executed after sources.
	KindTransformer
	// KindSink blocks are executed last.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindTransformer:
		return "transformer"
	case KindSink:
		return "sink"
	}
	return "unknown"
}

// Registry maps block type names to allocators.
type Registry struct {
	mu           sync.RWMutex
	kinds        map[string]Kind
	sources      map[string]SourceAllocatorFunc
	transformers map[string]TransformerAllocatorFunc
	sinks        map[string]SinkAllocatorFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:        make(map[string]Kind),
		sources:      make(map[string]SourceAllocatorFunc),
		transformers: make(map[string]TransformerAllocatorFunc),
		sinks:        make(map[string]SinkAllocatorFunc),
	}
}

func (r *Registry) add(name string, k Kind) error {
	if existing, ok := r.kinds[name]; ok {
		return fmt.Errorf("register %s %q: %w as %s", k, name, ErrDuplicateType, existing)
	}
	r.kinds[name] = k
	return nil
}

// RegisterSource adds source block type.
func (r *Registry) RegisterSource(name string, fn SourceAllocatorFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.add(name, KindSource); err != nil {
		return err
	}
	r.sources[name] = fn
	return nil
}

// RegisterTransformer adds transformer block type.
func (r *Registry) RegisterTransformer(name string, fn TransformerAllocatorFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.add(name, KindTransformer); err != nil {
		return err
	}
	r.transformers[name] = fn
	return nil
}

// RegisterSink adds sink block type.
func (r *Registry) RegisterSink(name string, fn SinkAllocatorFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.add(name, KindSink); err != nil {
		return err
	}
	r.sinks[name] = fn
	return nil
}

// Kind returns the kind of registered block type.
func (r *Registry) Kind(name string) (Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownType)
	}
	return k, nil
}

// Source returns the allocator of source type.
func (r *Registry) Source(name string) (SourceAllocatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.sources[name]
	return fn, ok
}

// Transformer returns the allocator of transformer type.
func (r *Registry) Transformer(name string) (TransformerAllocatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.transformers[name]
	return fn, ok
}

// Sink returns the allocator of sink type.
func (r *Registry) Sink(name string) (SinkAllocatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.sinks[name]
	return fn, ok
}

// Types returns sorted names of all registered types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
