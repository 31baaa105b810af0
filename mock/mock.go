// Package mock provides mocks for blocks and allows to execute runner
// integration tests.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/stream"
)

// Source mocks a block.Source. It writes Value to its outputs every
// cycle, or the result of Pattern if it's set.
type Source struct {
	counter
	Interval    time.Duration
	Value       float64
	Pattern     func(cycle int, buf []float64)
	ErrorOnMake error
	ErrorOnCall error
	// FailAfter is the number of successful cycles before ErrorOnCall is
	// returned.
	FailAfter int
	Hooks
	outputs []stream.Buffer
}

// Allocator returns allocator which binds the mock.
func (m *Source) Allocator() block.SourceAllocatorFunc {
	return func(b block.Binding) (block.Source, error) {
		m.made()
		if m.ErrorOnMake != nil {
			return nil, m.ErrorOnMake
		}
		m.outputs = b.Outputs
		return m, nil
	}
}

// Read implements block.Source.
func (m *Source) Read(ctx context.Context) error {
	if m.ErrorOnCall != nil && m.Cycles() >= m.FailAfter {
		return m.ErrorOnCall
	}
	if m.Interval > 0 {
		select {
		case <-time.After(m.Interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	cycle := m.Cycles()
	for _, out := range m.outputs {
		if m.Pattern != nil {
			m.Pattern(cycle, out)
			continue
		}
		for i := range out {
			out[i] = m.Value
		}
	}
	m.advance(len(m.outputs), len(firstOf(m.outputs)))
	return nil
}

// Transformer mocks a block.Transformer. It writes the sum of inputs to
// every output.
type Transformer struct {
	counter
	ErrorOnMake error
	ErrorOnCall error
	FailAfter   int
	Hooks
	inputs  []stream.Buffer
	outputs []stream.Buffer
}

// Allocator returns allocator which binds the mock.
func (m *Transformer) Allocator() block.TransformerAllocatorFunc {
	return func(b block.Binding) (block.Transformer, error) {
		m.made()
		if m.ErrorOnMake != nil {
			return nil, m.ErrorOnMake
		}
		m.inputs, m.outputs = b.Inputs, b.Outputs
		return m, nil
	}
}

// Transform implements block.Transformer.
func (m *Transformer) Transform() error {
	if m.ErrorOnCall != nil && m.Cycles() >= m.FailAfter {
		return m.ErrorOnCall
	}
	for _, out := range m.outputs {
		out.Zero()
		for _, in := range m.inputs {
			out.Add(in)
		}
	}
	m.advance(len(m.inputs), len(firstOf(m.inputs)))
	return nil
}

// Sink mocks a block.Sink. It keeps received samples of the first input
// unless Discard is set.
type Sink struct {
	counter
	Discard     bool
	ErrorOnMake error
	ErrorOnCall error
	FailAfter   int
	Hooks
	primed atomic.Int32
	inputs []stream.Buffer
	mu     sync.Mutex
	buffer []float64
}

// Allocator returns allocator which binds the mock.
func (m *Sink) Allocator() block.SinkAllocatorFunc {
	return func(b block.Binding) (block.Sink, error) {
		m.made()
		if m.ErrorOnMake != nil {
			return nil, m.ErrorOnMake
		}
		m.inputs = b.Inputs
		return m, nil
	}
}

// Write implements block.Sink.
func (m *Sink) Write(context.Context) error {
	if m.ErrorOnCall != nil && m.Cycles() >= m.FailAfter {
		return m.ErrorOnCall
	}
	in := firstOf(m.inputs)
	if !m.Discard {
		m.mu.Lock()
		m.buffer = append(m.buffer, in...)
		m.mu.Unlock()
	}
	m.advance(len(m.inputs), len(in))
	return nil
}

// Prime implements block.Primer. Primed buffers aren't recorded.
func (m *Sink) Prime(context.Context) error {
	m.primed.Add(1)
	return nil
}

// Primed returns number of Prime calls.
func (m *Sink) Primed() int {
	return int(m.primed.Load())
}

// Buffer returns a copy of received samples.
func (m *Sink) Buffer() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.buffer...)
}

// Reset clears received samples and counters.
func (m *Sink) Reset() {
	m.mu.Lock()
	m.buffer = nil
	m.mu.Unlock()
	m.primed.Store(0)
	m.counter.reset()
}

func firstOf(buffers []stream.Buffer) stream.Buffer {
	if len(buffers) == 0 {
		return nil
	}
	return buffers[0]
}

// Hooks allows to mock block hooks.
type Hooks struct {
	flushed      atomic.Int32
	ErrorOnFlush error
}

// Flush implements block.Flusher.
func (h *Hooks) Flush() error {
	h.flushed.Add(1)
	return h.ErrorOnFlush
}

// Flushed returns number of Flush calls.
func (h *Hooks) Flushed() int {
	return int(h.flushed.Load())
}

// counter counts cycles and samples. Counters can be read while runner
// is running.
type counter struct {
	allocated atomic.Int32
	cycles    atomic.Int64
	samples   atomic.Int64
}

func (c *counter) made() {
	c.allocated.Add(1)
}

func (c *counter) reset() {
	c.cycles.Store(0)
	c.samples.Store(0)
}

// Advance counter's metrics.
func (c *counter) advance(channels, size int) {
	c.cycles.Add(1)
	c.samples.Add(int64(channels * size))
}

// Allocated returns number of allocator calls.
func (c *counter) Allocated() int {
	return int(c.allocated.Load())
}

// Cycles returns number of successful calls.
func (c *counter) Cycles() int {
	return int(c.cycles.Load())
}

// Samples returns number of processed samples.
func (c *counter) Samples() int {
	return int(c.samples.Load())
}
