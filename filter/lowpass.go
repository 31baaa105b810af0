// Package filter provides IIR filter blocks.
package filter

import (
	"math"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/stream"
)

// LowPassType is the name under which low-pass filter is registered.
const LowPassType = "LowPass"

// IIR is a direct form I filter. History is kept in ring buffers so no
// samples are shifted during processing.
type IIR struct {
	b, a       []float64
	inHistory  []float64
	outHistory []float64
	ring       int
}

// NewIIR returns a filter with provided coefficients. Coefficients are
// normalized by a[0].
func NewIIR(numerator, denominator []float64) *IIR {
	a0 := denominator[0]
	b := make([]float64, len(numerator))
	for i := range numerator {
		b[i] = numerator[i] / a0
	}
	a := make([]float64, len(denominator))
	for i := range denominator {
		a[i] = denominator[i] / a0
	}
	order := len(b)
	if len(a) > order {
		order = len(a)
	}
	return &IIR{
		b:          b,
		a:          a,
		inHistory:  make([]float64, order),
		outHistory: make([]float64, order),
	}
}

// Process filters in into out. Both slices must have the same length.
func (f *IIR) Process(in, out []float64) {
	order := len(f.inHistory)
	for n := range in {
		y := f.b[0] * in[n]
		for i := 1; i < order; i++ {
			prev := (f.ring - i + order) % order
			if i < len(f.b) {
				y += f.b[i] * f.inHistory[prev]
			}
			if i < len(f.a) {
				y -= f.a[i] * f.outHistory[prev]
			}
		}
		f.inHistory[f.ring] = in[n]
		f.outHistory[f.ring] = y
		f.ring = (f.ring + 1) % order
		out[n] = y
	}
}

// ButterworthLowPass returns second order low-pass coefficients for the
// cutoff frequency.
func ButterworthLowPass(cutoff float64, sampleRate int) (numerator, denominator []float64) {
	w0 := 2 * math.Pi * cutoff / float64(sampleRate)
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * (1 / math.Sqrt2))
	numerator = []float64{(1 - cos) / 2, 1 - cos, (1 - cos) / 2}
	denominator = []float64{1 + alpha, -2 * cos, 1 - alpha}
	return
}

// LowPass filters out signal above the cutoff frequency.
type LowPass struct {
	*IIR
	in  stream.Buffer
	out stream.Buffer
}

// LowPassAllocator returns new low-pass filter for the binding.
func LowPassAllocator(b block.Binding) (block.Transformer, error) {
	return NewLowPass(b)
}

// NewLowPass returns a low-pass filter. Coefficients are either provided
// with numerator and denominator params or computed from cutoff.
func NewLowPass(b block.Binding) (*LowPass, error) {
	if err := b.ExpectInputs(1); err != nil {
		return nil, err
	}
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	numerator, denominator, err := coefficients(b)
	if err != nil {
		return nil, err
	}
	return &LowPass{
		IIR: NewIIR(numerator, denominator),
		in:  b.Input(),
		out: b.Output(),
	}, nil
}

func coefficients(b block.Binding) ([]float64, []float64, error) {
	c := b.Config
	if _, ok := c.Params["numerator"]; ok {
		numerator, err := c.Floats("numerator")
		if err != nil {
			return nil, nil, err
		}
		if len(numerator) == 0 {
			return nil, nil, c.Errorf("numerator", "at least one coefficient is required")
		}
		denominator, err := c.FloatsDefault("denominator", []float64{1})
		if err != nil {
			return nil, nil, err
		}
		if len(denominator) == 0 || denominator[0] == 0 {
			return nil, nil, c.Errorf("denominator", "first coefficient must be non-zero")
		}
		return numerator, denominator, nil
	}
	cutoff, err := c.Float("cutoff")
	if err != nil {
		return nil, nil, err
	}
	if cutoff <= 0 || cutoff >= float64(b.SampleRate)/2 {
		return nil, nil, c.Errorf("cutoff", "must be between 0 and %v Hz", float64(b.SampleRate)/2)
	}
	numerator, denominator := ButterworthLowPass(cutoff, b.SampleRate)
	return numerator, denominator, nil
}

// Transform filters a single buffer.
func (f *LowPass) Transform() error {
	f.Process(f.in, f.out)
	return nil
}
