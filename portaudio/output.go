package portaudio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/handoff"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/stream"
)

// OutputDevice plays mono audio on hardware.
type OutputDevice struct {
	name    string
	in      stream.Buffer
	slot    *handoff.Slot
	frames  int
	timeout time.Duration
	stream  *portaudio.Stream
	*failure
	log log.Logger
}

// OutputAllocator returns new output device for the binding.
func OutputAllocator(b block.Binding) (block.Sink, error) {
	return NewOutputDevice(b)
}

// NewOutputDevice opens and starts playback stream.
func NewOutputDevice(b block.Binding) (*OutputDevice, error) {
	if err := b.ExpectInputs(1); err != nil {
		return nil, err
	}
	s, err := parseSettings(b.Config)
	if err != nil {
		return nil, err
	}
	d := &OutputDevice{
		name:    b.Config.Name,
		in:      b.Input(),
		slot:    handoff.New(b.BufferSize),
		frames:  b.BufferSize,
		timeout: s.timeout,
		failure: newFailure(),
		log:     b.Logger(),
	}
	d.stream, err = open(b.Config, s, false, b.SampleRate, b.BufferSize, d.process)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// process is the hardware callback. Silence is played when the dispatch
// loop doesn't deliver a buffer in time.
func (d *OutputDevice) process(out []float32) {
	if d.failed.Load() {
		silence(out)
		return
	}
	if len(out) != d.frames {
		err := fmt.Errorf("%s: %w: got %d, expected %d", d.name, ErrFrameCount, len(out), d.frames)
		d.log.Error(err)
		d.set(err)
		silence(out)
		return
	}
	err := d.slot.TakeWithin(d.timeout, func(buf []float64) {
		for i, v := range buf {
			out[i] = float32(v)
		}
	})
	if err != nil {
		d.log.Warnf("%s: underrun: %v", d.name, err)
		silence(out)
	}
}

func silence(out []float32) {
	for i := range out {
		out[i] = 0
	}
}

// Write hands the input channel over to the hardware.
func (d *OutputDevice) Write(ctx context.Context) error {
	return d.put(ctx, func(buf []float64) {
		copy(buf, d.in)
	})
}

// Prime hands a buffer of silence over to the hardware.
func (d *OutputDevice) Prime(ctx context.Context) error {
	return d.put(ctx, func(buf []float64) {
		for i := range buf {
			buf[i] = 0
		}
	})
}

func (d *OutputDevice) put(ctx context.Context, fill func([]float64)) error {
	if err := d.err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.slot.Put(ctx, fill)
	if errors.Is(err, context.DeadlineExceeded) {
		if ferr := d.err(); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%s: %w", d.name, handoff.ErrTimeout)
	}
	return err
}

// Flush stops the stream and terminates portaudio.
func (d *OutputDevice) Flush() error {
	return closeStream(d.stream, d.failed.Load())
}
