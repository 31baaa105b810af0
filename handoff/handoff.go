// Package handoff exchanges buffers between the hardware callback and the
// dispatch loop.
//
// Slot is a single-slot mailbox: exactly one buffer circulates between a
// free and a full channel. Producer waits while the slot is full, so unread
// data is never overwritten, consumer waits while it's empty. Every
// produced buffer is consumed exactly once and in order.
package handoff

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when wait for the other side exceeds the limit.
var ErrTimeout = errors.New("handoff timeout")

// Slot is a bounded single-slot handoff.
type Slot struct {
	size int
	free chan []float64
	full chan []float64
}

// New returns an empty slot with a buffer of provided size.
func New(size int) *Slot {
	s := Slot{
		size: size,
		free: make(chan []float64, 1),
		full: make(chan []float64, 1),
	}
	s.free <- make([]float64, size)
	return &s
}

// Size returns length of the slot buffer.
func (s *Slot) Size() int {
	return s.size
}

// Put waits until the slot is empty and calls fill with the slot buffer.
// The slot is marked full after fill returns. Context error is returned if
// context is done while waiting.
func (s *Slot) Put(ctx context.Context, fill func([]float64)) error {
	var b []float64
	select {
	case b = <-s.free:
	case <-ctx.Done():
		return ctx.Err()
	}
	fill(b)
	s.full <- b
	return nil
}

// Take waits until the slot is full and calls drain with the slot buffer.
// The slot is marked empty after drain returns. Context error is returned
// if context is done while waiting.
func (s *Slot) Take(ctx context.Context, drain func([]float64)) error {
	var b []float64
	select {
	case b = <-s.full:
	case <-ctx.Done():
		return ctx.Err()
	}
	drain(b)
	s.free <- b
	return nil
}

// PutWithin is Put bounded by timeout. ErrTimeout is returned if the slot
// didn't become empty in time.
func (s *Slot) PutWithin(timeout time.Duration, fill func([]float64)) error {
	var b []float64
	select {
	case b = <-s.free:
	default:
		t := time.NewTimer(timeout)
		select {
		case b = <-s.free:
			t.Stop()
		case <-t.C:
			return ErrTimeout
		}
	}
	fill(b)
	s.full <- b
	return nil
}

// TakeWithin is Take bounded by timeout. ErrTimeout is returned if the
// slot didn't become full in time.
func (s *Slot) TakeWithin(timeout time.Duration, drain func([]float64)) error {
	var b []float64
	select {
	case b = <-s.full:
	default:
		t := time.NewTimer(timeout)
		select {
		case b = <-s.full:
			t.Stop()
		case <-t.C:
			return ErrTimeout
		}
	}
	drain(b)
	s.free <- b
	return nil
}
