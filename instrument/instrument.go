// Package instrument provides a virtual instrument which plays clips
// mapped to keyboard keys.
package instrument

import (
	"context"
	"sort"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/sampler"
	"github.com/pipelined/looper/stream"
)

// Type is the name under which instrument is registered.
const Type = "Instrument"

type voice struct {
	clip    *stream.Clip
	sampler sampler.Sampler
}

// Instrument starts a clip every time its key is pressed. Voices of
// different keys are mixed.
type Instrument struct {
	keys   block.Keys
	out    stream.Buffer
	voices map[string]*voice
	order  []string
	tmp    []float64
}

// Allocator returns new instrument for the binding.
func Allocator(b block.Binding) (block.Source, error) {
	return New(b)
}

// New loads instrument definition and its clips.
func New(b block.Binding) (*Instrument, error) {
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	c := b.Config
	for _, s := range c.Segments {
		if s.Type != block.Output {
			return nil, c.Errorf("segments", "only output segments are supported")
		}
	}
	name, err := c.String("instrument")
	if err != nil {
		return nil, err
	}
	volume, err := c.FloatDefault("volume", 1)
	if err != nil {
		return nil, err
	}
	if b.Assets == nil {
		return nil, c.Errorf("instrument", "assets are not available")
	}
	if b.Keys == nil {
		return nil, c.Errorf("instrument", "keyboard is not available")
	}
	def, err := b.Assets.Instrument(name)
	if err != nil {
		return nil, c.Wrap("instrument", err)
	}

	voices := make(map[string]*voice, len(def.Sounds))
	for _, sound := range def.Sounds {
		clip, err := b.Assets.Clip(sound.File)
		if err != nil {
			return nil, c.Errorf("instrument", "key %q: %v", sound.Key, err)
		}
		clip.Scale(volume)
		voices[sound.Key] = &voice{clip: clip}
	}
	order := make([]string, 0, len(voices))
	for key := range voices {
		order = append(order, key)
	}
	sort.Strings(order)
	b.Logger().Debugf("instrument %q loaded with keys %v", name, order)

	return &Instrument{
		keys:   b.Keys,
		out:    b.Output(),
		voices: voices,
		order:  order,
		tmp:    make([]float64, len(b.Output())),
	}, nil
}

// Read writes a single buffer of mixed voices.
func (i *Instrument) Read(context.Context) error {
	for _, key := range i.keys.Pressed() {
		if v, ok := i.voices[key]; ok {
			v.sampler.Play(v.clip, false)
		}
	}
	i.out.Zero()
	for _, key := range i.order {
		v := i.voices[key]
		if !v.sampler.Playing() {
			continue
		}
		for j := range i.tmp {
			i.tmp[j] = 0
		}
		v.sampler.Next(i.tmp)
		i.out.Add(i.tmp)
	}
	return nil
}
