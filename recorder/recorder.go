// Package recorder provides a sink which records its input segment and
// saves it to a file when the pipeline is released.
package recorder

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
	"github.com/pipelined/looper/wav"
)

// Type is the name under which recorder is registered.
const Type = "Recorder"

// DefaultFormat is used when format param is not set.
const DefaultFormat = "wav"

// WriteFunc saves mono samples to the file.
type WriteFunc func(path string, samples []float64, sampleRate int) error

// Writers maps file format to its writer.
type Writers map[string]WriteFunc

// DefaultWriters returns writers which don't require cgo.
func DefaultWriters() Writers {
	return Writers{
		"wav": func(path string, samples []float64, sampleRate int) error {
			return wav.WriteClip(path, samples, sampleRate, 16)
		},
	}
}

func (w Writers) formats() []string {
	formats := make([]string, 0, len(w))
	for f := range w {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Recorder keeps its input segment in memory.
type Recorder struct {
	name       string
	path       string
	in         stream.Buffer
	clock      *tempo.Clock
	segment    block.Segment
	clip       *stream.Clip
	complete   bool
	disabled   bool
	write      WriteFunc
	sampleRate int
	log        log.Logger
}

// Allocator returns an allocator which uses provided writers.
func Allocator(writers Writers) block.SinkAllocatorFunc {
	return func(b block.Binding) (block.Sink, error) {
		return New(b, writers)
	}
}

// New returns a recorder. The file is written to
// <directory>/<name>.<format>.
func New(b block.Binding, writers Writers) (*Recorder, error) {
	if err := b.ExpectInputs(1); err != nil {
		return nil, err
	}
	c := b.Config
	if len(c.Segments) != 1 || c.Segments[0].Type != block.Input {
		return nil, c.Errorf("segments", "exactly one input segment is required")
	}
	directory, err := c.String("directory")
	if err != nil {
		return nil, err
	}
	disabled, err := c.BoolDefault("disabled", false)
	if err != nil {
		return nil, err
	}
	format, err := c.StringDefault("format", DefaultFormat)
	if err != nil {
		return nil, err
	}
	write, ok := writers[format]
	if !ok {
		return nil, c.Errorf("format", "unsupported format %q, supported: %v", format, writers.formats())
	}
	if !disabled {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, c.Wrap("directory", err)
		}
	}
	return &Recorder{
		name:       c.Name,
		path:       filepath.Join(directory, c.Name+"."+format),
		in:         b.Input(),
		clock:      b.Clock,
		segment:    c.Segments[0],
		clip:       stream.NewClip(nil),
		disabled:   disabled,
		write:      write,
		sampleRate: b.SampleRate,
		log:        b.Logger(),
	}, nil
}

// Write records a single buffer if the clock is within the segment.
func (r *Recorder) Write(context.Context) error {
	if r.complete || r.disabled {
		return nil
	}
	if r.clock.InMeasure(r.segment.Start, r.segment.Stop, 0) {
		if r.clip.Len() == 0 {
			r.log.Infof("recording started: %s", r.name)
		}
		r.clip.Append(r.in)
		return nil
	}
	if r.clock.CurrentMeasure() >= r.segment.Stop {
		r.log.Infof("recording complete: %s", r.name)
		r.complete = true
	}
	return nil
}

// Complete returns true if the whole segment was recorded.
func (r *Recorder) Complete() bool {
	return r.complete
}

// Path returns the path of the output file.
func (r *Recorder) Path() string {
	return r.path
}

// Flush saves complete recording.
func (r *Recorder) Flush() error {
	switch {
	case r.disabled:
		r.log.Infof("recorder %s is disabled, nothing to do", r.name)
		return nil
	case !r.complete:
		r.log.Warnf("abandoning recording %q because the segment wasn't complete", r.name)
		return nil
	}
	if err := r.write(r.path, r.clip.Samples(), r.sampleRate); err != nil {
		return err
	}
	r.log.Infof("recording %s saved to %s", r.name, r.path)
	return nil
}
