// Package block defines the boundary between the runner and the audio
// blocks it dispatches. Blocks are created by allocator functions which
// receive a Binding with everything the block needs to run.
package block

import (
	"context"

	"github.com/rs/xid"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
)

// Source produces one buffer into its output channels per cycle.
type Source interface {
	Read(ctx context.Context) error
}

// Transformer reads its input channels and writes its output channels
// once per cycle.
type Transformer interface {
	Transform() error
}

// Sink consumes one buffer from its input channels per cycle.
type Sink interface {
	Write(ctx context.Context) error
}

// Flusher is implemented by blocks which hold resources. Flush is called
// once when the pipeline is released.
type Flusher interface {
	Flush() error
}

// Primer is implemented by sinks which must be fed before the first
// cycle, e.g. hardware outputs. Prime is called once per warm-up cycle
// instead of Write.
type Primer interface {
	Prime(ctx context.Context) error
}

// Keys is the snapshot of keys pressed during the current cycle.
type Keys interface {
	Pressed() []string
}

type (
	// SourceAllocatorFunc creates a source block.
	SourceAllocatorFunc func(Binding) (Source, error)
	// TransformerAllocatorFunc creates a transformer block.
	TransformerAllocatorFunc func(Binding) (Transformer, error)
	// SinkAllocatorFunc creates a sink block.
	SinkAllocatorFunc func(Binding) (Sink, error)
)

// Binding carries the configuration and bound resources of a single block.
type Binding struct {
	UID        string
	Config     *Config
	Inputs     []stream.Buffer
	Outputs    []stream.Buffer
	Clock      *tempo.Clock
	Keys       Keys
	SampleRate int
	BufferSize int
	Assets     *asset.Store
	Log        log.Logger
}

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}

// Input returns the single input channel. It must be called after the
// number of inputs was checked with ExpectInputs.
func (b Binding) Input() stream.Buffer {
	return b.Inputs[0]
}

// Output returns the single output channel. It must be called after the
// number of outputs was checked with ExpectOutputs.
func (b Binding) Output() stream.Buffer {
	return b.Outputs[0]
}

// ExpectInputs checks that block has exactly n input channels.
func (b Binding) ExpectInputs(n int) error {
	if len(b.Inputs) != n {
		return b.Config.Errorf("input_channels", "expected %d channels, got %d", n, len(b.Inputs))
	}
	return nil
}

// ExpectOutputs checks that block has exactly n output channels.
func (b Binding) ExpectOutputs(n int) error {
	if len(b.Outputs) != n {
		return b.Config.Errorf("output_channels", "expected %d channels, got %d", n, len(b.Outputs))
	}
	return nil
}

// Logger returns the block logger. Silent logger is returned if none was
// bound.
func (b Binding) Logger() log.Logger {
	if b.Log == nil {
		return log.Silent()
	}
	return b.Log
}
