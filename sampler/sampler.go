// Package sampler plays clips into buffers.
package sampler

import "github.com/pipelined/looper/stream"

// Sampler is a playback cursor over a single clip. It's owned by a single
// block and must not be shared.
type Sampler struct {
	clip    *stream.Clip
	cursor  int
	playing bool
	loop    bool
}

// Play starts playback of the clip from the beginning. If loop is true,
// the clip is repeated until Stop is called.
func (s *Sampler) Play(clip *stream.Clip, loop bool) {
	s.clip = clip
	s.loop = loop
	s.cursor = 0
	s.playing = clip != nil
}

// Skip moves the cursor forward by n samples, but not past the end of
// the clip. It does nothing when sampler is idle.
func (s *Sampler) Skip(n int) {
	if !s.playing {
		return
	}
	s.cursor += n
	if l := s.clip.Len(); s.cursor > l {
		s.cursor = l
	}
}

// Stop stops playback and releases the clip.
func (s *Sampler) Stop() {
	s.clip = nil
	s.playing = false
	s.cursor = 0
}

// Playing returns true if sampler is playing.
func (s *Sampler) Playing() bool {
	return s.playing
}

// Cursor returns current position in the clip.
func (s *Sampler) Cursor() int {
	return s.cursor
}

// Next copies the next portion of the clip into the start of out. When
// sampler is idle, out is left untouched. If clip ends within out, the rest
// of out is also left untouched, so callers must zero it for silence.
func (s *Sampler) Next(out []float64) {
	if !s.playing {
		return
	}
	samples := s.clip.Samples()
	stop := s.cursor + len(out)
	if stop > len(samples) {
		stop = len(samples)
	}
	copy(out, samples[s.cursor:stop])

	if stop < len(samples) {
		s.cursor = stop
		return
	}
	if s.loop {
		s.cursor = 0
		return
	}
	s.Stop()
}
