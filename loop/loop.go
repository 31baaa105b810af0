// Package loop implements the loop transformer: it records its input
// during the input segment and replays the recording during output
// segments.
package loop

import (
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/sampler"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
)

// Type names under which loop is registered.
const (
	Type      = "Loop"
	AliasType = "Looper"
)

// Loop records one segment and replays it in other segments.
type Loop struct {
	name      string
	clock     *tempo.Clock
	in        stream.Buffer
	out       stream.Buffer
	recording block.Segment
	replays   block.Segments
	offsets   []int // replay offsets in samples
	clip      *stream.Clip
	sampler   sampler.Sampler
	log       log.Logger
}

// Allocator returns new loop for the binding.
func Allocator(b block.Binding) (block.Transformer, error) {
	return New(b)
}

// New validates configuration and returns a loop.
func New(b block.Binding) (*Loop, error) {
	if err := b.ExpectInputs(1); err != nil {
		return nil, err
	}
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	for _, s := range b.Config.Segments {
		if err := s.Validate(); err != nil {
			return nil, b.Config.Errorf("segments", "%v", err)
		}
	}
	inputs := b.Config.Segments.OfType(block.Input)
	if len(inputs) != 1 {
		return nil, b.Config.Errorf("segments", "expected exactly one input segment, got %d", len(inputs))
	}
	recording := inputs[0]
	replays := b.Config.Segments.OfType(block.Output)
	length := recording.Stop - recording.Start
	offsets := make([]int, len(replays))
	for i, r := range replays {
		if r.Start < recording.Stop {
			return nil, b.Config.Errorf("segments",
				"output segment [%v, %v) starts before recording stops at %v", r.Start, r.Stop, recording.Stop)
		}
		if r.Offset >= length {
			return nil, b.Config.Errorf("segments",
				"output segment [%v, %v) offset %v must be within recording length %v", r.Start, r.Stop, r.Offset, length)
		}
		offsets[i] = b.Clock.MeasuresToSamples(r.Offset)
	}

	return &Loop{
		name:      b.Config.Name,
		clock:     b.Clock,
		in:        b.Input(),
		out:       b.Output(),
		recording: recording,
		replays:   replays,
		offsets:   offsets,
		clip:      stream.NewClip(nil),
		log:       b.Logger(),
	}, nil
}

// Transform records and replays a single buffer.
func (l *Loop) Transform() error {
	if l.clock.InMeasure(l.recording.Start, l.recording.Stop, 0) {
		l.clip.Append(l.in)
	}

	replay := -1
	for i, r := range l.replays {
		if l.clock.InMeasure(r.Start, r.Stop, 1) {
			replay = i
			break
		}
	}
	switch {
	case replay == -1:
		if l.sampler.Playing() {
			l.log.Debugf("%s: replay stopped", l.name)
		}
		l.sampler.Stop()
	case !l.sampler.Playing():
		l.sampler.Play(l.clip, true)
		l.sampler.Skip(l.offsets[replay])
		l.log.Debugf("%s: replay started at offset %d of %d samples", l.name, l.offsets[replay], l.clip.Len())
	}

	l.out.Zero()
	l.sampler.Next(l.out)
	return nil
}

// Recording returns the recorded clip.
func (l *Loop) Recording() *stream.Clip {
	return l.clip
}
