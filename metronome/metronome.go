// Package metronome provides a source which clicks on every beat.
package metronome

import (
	"context"
	"math"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/sampler"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
)

// Type is the name under which metronome is registered.
const Type = "Metronome"

// Defaults of the generated beep.
const (
	DefaultFreq     = 440.0
	DefaultVolume   = 0.5
	DefaultDuration = 0.05
)

// Metronome plays a clip on every beat within its segments. Without
// segments it plays all the time.
type Metronome struct {
	clock    *tempo.Clock
	out      stream.Buffer
	clip     *stream.Clip
	sampler  sampler.Sampler
	segments block.Segments
}

// Allocator returns new metronome for the binding.
func Allocator(b block.Binding) (block.Source, error) {
	return New(b)
}

// New returns a metronome. If sound param is set, the clip is loaded from
// assets, otherwise a sine beep is generated.
func New(b block.Binding) (*Metronome, error) {
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	c := b.Config
	for _, s := range c.Segments {
		if s.Type != block.Output {
			return nil, c.Errorf("segments", "only output segments are supported")
		}
	}
	volume, err := c.FloatDefault("volume", DefaultVolume)
	if err != nil {
		return nil, err
	}
	sound, err := c.StringDefault("sound", "")
	if err != nil {
		return nil, err
	}

	var clip *stream.Clip
	if sound == "" {
		freq, err := c.FloatDefault("freq", DefaultFreq)
		if err != nil {
			return nil, err
		}
		duration, err := c.FloatDefault("duration", DefaultDuration)
		if err != nil {
			return nil, err
		}
		if duration <= 0 {
			return nil, c.Errorf("duration", "must be positive")
		}
		clip = Beep(freq, duration, b.SampleRate)
	} else {
		if b.Assets == nil {
			return nil, c.Errorf("sound", "assets are not available")
		}
		clip, err = b.Assets.Clip(sound)
		if err != nil {
			return nil, c.Wrap("sound", err)
		}
	}
	clip.Scale(volume)

	return &Metronome{
		clock:    b.Clock,
		out:      b.Output(),
		clip:     clip,
		segments: c.Segments,
	}, nil
}

// Beep generates a sine tone of unit amplitude.
func Beep(freq, duration float64, sampleRate int) *stream.Clip {
	n := int(math.Round(duration * float64(sampleRate)))
	samples := make([]float64, n)
	step := 1 / float64(sampleRate)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) * step)
	}
	return stream.NewClip(samples)
}

func (m *Metronome) active() bool {
	if len(m.segments) == 0 {
		return true
	}
	for _, s := range m.segments {
		if m.clock.InMeasure(s.Start, s.Stop, 0) {
			return true
		}
	}
	return false
}

// Read writes a single buffer of clicks.
func (m *Metronome) Read(context.Context) error {
	if m.active() && m.clock.OnBeat(0) {
		m.sampler.Play(m.clip, false)
	}
	m.out.Zero()
	m.sampler.Next(m.out)
	return nil
}
