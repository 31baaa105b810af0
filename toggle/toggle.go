// Package toggle provides a gate which passes the signal only during its
// output segments.
package toggle

import (
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
)

// Type is the name under which toggle is registered.
const Type = "Toggle"

// Toggle copies input to output within output segments and writes
// silence otherwise.
type Toggle struct {
	clock    *tempo.Clock
	in       stream.Buffer
	out      stream.Buffer
	segments block.Segments
}

// Allocator returns new toggle for the binding.
func Allocator(b block.Binding) (block.Transformer, error) {
	return New(b)
}

// New returns a toggle.
func New(b block.Binding) (*Toggle, error) {
	if err := b.ExpectInputs(1); err != nil {
		return nil, err
	}
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	segments := b.Config.Segments.OfType(block.Output)
	if len(segments) == 0 {
		return nil, b.Config.Errorf("segments", "at least one output segment is required")
	}
	return &Toggle{
		clock:    b.Clock,
		in:       b.Input(),
		out:      b.Output(),
		segments: segments,
	}, nil
}

// Transform gates a single buffer.
func (t *Toggle) Transform() error {
	for _, s := range t.segments {
		if t.clock.InMeasure(s.Start, s.Stop, 0) {
			t.out.CopyFrom(t.in)
			return nil
		}
	}
	t.out.Zero()
	return nil
}
