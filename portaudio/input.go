package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/handoff"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/stream"
)

// failure keeps the first hardware error. It's set from the callback and
// read by the dispatch loop.
type failure struct {
	failed atomic.Bool
	errc   chan error
}

func newFailure() *failure {
	return &failure{errc: make(chan error, 1)}
}

func (f *failure) set(err error) {
	if f.failed.CompareAndSwap(false, true) {
		f.errc <- err
	}
}

func (f *failure) err() error {
	select {
	case err := <-f.errc:
		f.errc <- err
		return err
	default:
		return nil
	}
}

// InputDevice captures mono audio from hardware.
type InputDevice struct {
	name    string
	out     stream.Buffer
	slot    *handoff.Slot
	frames  int
	timeout time.Duration
	stream  *portaudio.Stream
	*failure
	log log.Logger
}

// InputAllocator returns new input device for the binding.
func InputAllocator(b block.Binding) (block.Source, error) {
	return NewInputDevice(b)
}

// NewInputDevice opens and starts capture stream.
func NewInputDevice(b block.Binding) (*InputDevice, error) {
	if err := b.ExpectOutputs(1); err != nil {
		return nil, err
	}
	s, err := parseSettings(b.Config)
	if err != nil {
		return nil, err
	}
	d := &InputDevice{
		name:    b.Config.Name,
		out:     b.Output(),
		slot:    handoff.New(b.BufferSize),
		frames:  b.BufferSize,
		timeout: s.timeout,
		failure: newFailure(),
		log:     b.Logger(),
	}
	d.stream, err = open(b.Config, s, true, b.SampleRate, b.BufferSize, d.process)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// process is the hardware callback.
func (d *InputDevice) process(in []float32) {
	if d.failed.Load() {
		return
	}
	if len(in) != d.frames {
		err := fmt.Errorf("%s: %w: got %d, expected %d", d.name, ErrFrameCount, len(in), d.frames)
		d.log.Error(err)
		d.set(err)
		return
	}
	err := d.slot.PutWithin(d.timeout, func(buf []float64) {
		for i, v := range in {
			buf[i] = float64(v)
		}
	})
	if err != nil {
		d.log.Warnf("%s: dropped captured buffer: %v", d.name, err)
	}
}

// Read copies captured buffer into the output channel. It waits for the
// hardware at most the timeout.
func (d *InputDevice) Read(ctx context.Context) error {
	if err := d.err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	err := d.slot.Take(ctx, func(buf []float64) {
		copy(d.out, buf)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		if ferr := d.err(); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%s: %w", d.name, handoff.ErrTimeout)
	}
	return err
}

// Flush stops the stream and terminates portaudio.
func (d *InputDevice) Flush() error {
	return closeStream(d.stream, d.failed.Load())
}
