// Package stream provides fixed-size sample buffers shared between blocks
// through named channels.
package stream

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pipelined/looper/log"
)

var (
	// ErrChannelExists is returned when channel is created twice.
	ErrChannelExists = errors.New("channel already exists")
	// ErrChannelNotFound is returned when bound channel doesn't exist.
	ErrChannelNotFound = errors.New("channel not found")
)

// Buffer is a fixed-length buffer of samples. Its length is equal to the
// buffer size of the router that allocated it and never changes.
type Buffer []float64

// Zero sets all samples to zero.
func (b Buffer) Zero() {
	for i := range b {
		b[i] = 0
	}
}

// Add mixes the source into the buffer. Only the overlapping part is
// mixed.
func (b Buffer) Add(source []float64) {
	n := len(b)
	if len(source) < n {
		n = len(source)
	}
	for i := 0; i < n; i++ {
		b[i] += source[i]
	}
}

// CopyFrom copies source into the buffer and returns number of copied
// samples.
func (b Buffer) CopyFrom(source []float64) int {
	return copy(b, source)
}

// Router owns all channel buffers. Buffers are kept in an arena indexed by
// channel name, every handle for the same name aliases the same memory.
// Single block creates a channel and any number of blocks bind to it.
type Router struct {
	mu         sync.Mutex
	bufferSize int
	arena      []Buffer
	index      map[string]int
	log        log.Logger
}

// NewRouter returns a router which allocates buffers of provided size.
func NewRouter(bufferSize int, logger log.Logger) *Router {
	if logger == nil {
		logger = log.Silent()
	}
	return &Router{
		bufferSize: bufferSize,
		index:      make(map[string]int),
		log:        logger,
	}
}

// BufferSize returns the length of every buffer in the router.
func (r *Router) BufferSize() int {
	return r.bufferSize
}

// Create allocates a new channel. Error is returned if channel with the
// same name was already created by another block.
func (r *Router) Create(name string) (Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[name]; ok {
		r.log.WithField("channels", r.names()).
			Errorf("attempted to create channel %q which was already created by another block", name)
		return nil, fmt.Errorf("create %q: %w", name, ErrChannelExists)
	}
	slot := len(r.arena)
	r.arena = append(r.arena, make(Buffer, r.bufferSize))
	r.index[name] = slot
	return r.arena[slot], nil
}

// Bind returns the buffer of existing channel. Error is returned if
// channel doesn't exist.
func (r *Router) Bind(name string) (Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.index[name]
	if !ok {
		r.log.WithField("channels", r.names()).
			Errorf("attempted to bind to channel %q which does not exist, are blocks out of order?", name)
		return nil, fmt.Errorf("bind %q: %w", name, ErrChannelNotFound)
	}
	return r.arena[slot], nil
}

// Names returns sorted names of all channels.
func (r *Router) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.names()
}

// ClearAll releases all buffers. It must not be called while any block
// is running.
func (r *Router) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arena = nil
	r.index = make(map[string]int)
}

func (r *Router) names() []string {
	names := make([]string, 0, len(r.index))
	for name := range r.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns the list of channels.
func (r *Router) String() string {
	return "[" + strings.Join(r.Names(), ", ") + "]"
}
