// Package tempo derives musical position from the number of processed
// buffers.
package tempo

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pipelined/looper/log"
)

// Defaults applied when tempo configuration omits values.
const (
	DefaultBPM             = 120
	DefaultBeatsPerMeasure = 4
	DefaultBeatDuration    = 4
)

// ErrInvalidTempo is returned when tempo values can't produce a clock.
var ErrInvalidTempo = errors.New("invalid tempo")

// Tempo describes the musical clock.
type Tempo struct {
	BPM             float64
	BeatsPerMeasure int
	BeatDuration    int
}

// Clock tracks the current beat. It's advanced once per dispatch cycle by
// exactly one buffer worth of musical time. Measures are 0-indexed: the
// first beat of the session is measure 0.0.
type Clock struct {
	sampleRate int
	bufferSize int
	log        log.Logger

	Tempo

	// derived values, fixed after Init.
	secondsPerStep    float64
	secondsPerBeat    float64
	beatsPerStep      float64
	measuresPerStep   float64
	samplesPerMeasure float64
	epsilonBeat       float64
	epsilonMeasure    float64

	steps       atomic.Int64
	currentBeat atomic.Uint64 // float64 bits
}

// New returns a clock for provided signal format. Clock must be
// initialized before any query.
func New(sampleRate, bufferSize int, logger log.Logger) *Clock {
	if logger == nil {
		logger = log.Silent()
	}
	return &Clock{
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		log:        logger,
	}
}

// Init computes derived values and resets the position.
func (c *Clock) Init(t Tempo) error {
	if t.BPM <= 0 {
		return fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidTempo, t.BPM)
	}
	if t.BeatsPerMeasure <= 0 {
		return fmt.Errorf("%w: beats per measure must be positive, got %v", ErrInvalidTempo, t.BeatsPerMeasure)
	}
	if c.sampleRate <= 0 || c.bufferSize <= 0 {
		return fmt.Errorf("%w: sample rate %d and buffer size %d must be positive", ErrInvalidTempo, c.sampleRate, c.bufferSize)
	}
	c.Tempo = t
	c.secondsPerStep = float64(c.bufferSize) / float64(c.sampleRate)
	c.secondsPerBeat = 60 / t.BPM
	c.beatsPerStep = c.secondsPerStep / c.secondsPerBeat
	c.measuresPerStep = c.beatsPerStep / float64(t.BeatsPerMeasure)
	c.samplesPerMeasure = float64(c.bufferSize) / c.measuresPerStep
	c.epsilonBeat = c.beatsPerStep / 2
	c.epsilonMeasure = c.measuresPerStep / 2

	c.steps.Store(0)
	c.setBeat(0)
	c.log.Debugf("tempo: bpm=%v beats_per_measure=%d beats_per_step=%v", t.BPM, t.BeatsPerMeasure, c.beatsPerStep)
	return nil
}

// Step advances the clock by one buffer. Only the dispatch loop calls it.
func (c *Clock) Step() {
	c.steps.Add(1)
	c.setBeat(c.CurrentBeat() + c.beatsPerStep)

	measure := c.CurrentMeasure()
	rounded := math.Round(measure)
	if math.Abs(measure-rounded) < c.epsilonMeasure {
		c.log.Debugf("measure %d", int(rounded))
	}
}

// Skip advances the clock by whole steps covering the number of measures
// and returns the number of steps skipped. Like Step, only the dispatch
// loop calls it.
func (c *Clock) Skip(measures int) int64 {
	if measures <= 0 {
		return 0
	}
	n := int64(math.Round(float64(measures) / c.measuresPerStep))
	c.steps.Add(n)
	c.setBeat(c.CurrentBeat() + float64(n)*c.beatsPerStep)
	c.log.Debugf("skipped %d measures in %d steps", measures, n)
	return n
}

// Steps returns the number of steps since Init.
func (c *Clock) Steps() int64 {
	return c.steps.Load()
}

// CurrentBeat returns the current position in beats.
func (c *Clock) CurrentBeat() float64 {
	return math.Float64frombits(c.currentBeat.Load())
}

// CurrentMeasure returns the current 0-indexed position in measures.
func (c *Clock) CurrentMeasure() float64 {
	return c.CurrentBeat() / float64(c.BeatsPerMeasure)
}

// InMeasure checks if the position, shifted by stepOffset steps, is
// within [m1, m2). The lower bound is relaxed by half a step, so windows
// are entered slightly early to absorb float drift, but left exactly at
// the upper bound.
func (c *Clock) InMeasure(m1, m2, stepOffset float64) bool {
	current := c.CurrentMeasure() + c.measuresPerStep*stepOffset
	return m1-c.epsilonMeasure <= current && current < m2
}

// OnBeat reports if the current step is the closest to a beat boundary.
// It's true for exactly one step per beat.
func (c *Clock) OnBeat(beatOffset float64) bool {
	beat := c.CurrentBeat() - beatOffset
	return math.Abs(math.Round(beat)-beat) < c.epsilonBeat
}

// MeasuresToSamples converts duration in measures into number of samples.
func (c *Clock) MeasuresToSamples(measures float64) int {
	return int(math.Round(measures * c.samplesPerMeasure))
}

// SecondsPerStep returns duration of a single buffer.
func (c *Clock) SecondsPerStep() float64 {
	return c.secondsPerStep
}

// BeatsPerStep returns number of beats in a single buffer.
func (c *Clock) BeatsPerStep() float64 {
	return c.beatsPerStep
}

// MeasuresPerStep returns number of measures in a single buffer.
func (c *Clock) MeasuresPerStep() float64 {
	return c.measuresPerStep
}

func (c *Clock) setBeat(beat float64) {
	c.currentBeat.Store(math.Float64bits(beat))
}
