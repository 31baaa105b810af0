// Package mixer provides the combiner block which sums multiple channels
// into a single channel.
package mixer

import (
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/stream"
)

// Type is the name under which combiner is registered.
const Type = "Combiner"

// Combiner sums up multiple input channels into a single output channel.
type Combiner struct {
	inputs []stream.Buffer
	out    stream.Buffer
	gain   float64
}

// Allocator returns new combiner for the binding.
func Allocator(b block.Binding) (block.Transformer, error) {
	return New(b)
}

// New returns a combiner. At least one input is required. Optional gain
// param scales the sum.
func New(b block.Binding) (*Combiner, error) {
	if len(b.Inputs) == 0 {
		return nil, b.Config.Errorf("input_channels", "at least one channel is required")
	}
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	gain, err := b.Config.FloatDefault("gain", 1)
	if err != nil {
		return nil, err
	}
	return &Combiner{
		inputs: b.Inputs,
		out:    b.Output(),
		gain:   gain,
	}, nil
}

// Transform mixes all inputs.
func (c *Combiner) Transform() error {
	c.out.Zero()
	for _, in := range c.inputs {
		c.out.Add(in)
	}
	if c.gain != 1 {
		for i := range c.out {
			c.out[i] *= c.gain
		}
	}
	return nil
}
