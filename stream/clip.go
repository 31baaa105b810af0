package stream

// Clip is a growable sequence of samples. Pre-loaded clips are read-only,
// recording clips are append-only and shared with samplers by pointer, so
// appended samples are visible to them.
type Clip struct {
	samples []float64
}

// NewClip wraps samples into a clip.
func NewClip(samples []float64) *Clip {
	return &Clip{samples: samples}
}

// Len returns number of samples in the clip.
func (c *Clip) Len() int {
	if c == nil {
		return 0
	}
	return len(c.samples)
}

// Samples returns underlying samples. Returned slice must not be modified.
func (c *Clip) Samples() []float64 {
	return c.samples
}

// Append adds samples to the end of the clip.
func (c *Clip) Append(samples []float64) {
	c.samples = append(c.samples, samples...)
}

// Scale multiplies every sample by the volume.
func (c *Clip) Scale(volume float64) {
	for i := range c.samples {
		c.samples[i] *= volume
	}
}

// Copy returns a clip with a copy of samples.
func (c *Clip) Copy() *Clip {
	samples := make([]float64, c.Len())
	if c != nil {
		copy(samples, c.samples)
	}
	return &Clip{samples: samples}
}
