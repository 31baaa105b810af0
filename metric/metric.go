// Package metric publishes per block type counters with expvar.
package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const blocksLabel = "looper.blocks"

const (
	// CycleCounter measures number of processed cycles.
	CycleCounter = "Cycles"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// BlockCounter counts number of block instances.
	BlockCounter = "Blocks"
)

var (
	blocks = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		CycleCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		BlockCounter,
	}
)

// Get metrics values for provided block type.
func Get(blockType string) map[string]string {
	return getCounters(blockType)
}

// GetAll returns counters for all measured block types.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	blocks.Lock()
	defer blocks.Unlock()
	for blockType := range blocks.m {
		m[blockType] = getCounters(blockType)
	}
	return m
}

// Types returns sorted names of measured block types.
func Types() []string {
	blocks.Lock()
	defer blocks.Unlock()
	types := make([]string, 0, len(blocks.m))
	for t := range blocks.m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func getCounters(blockType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(blockType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until block is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when buffer is processed.
type MeasureFunc func(bufferSize int)

// Meter creates new meter closure to capture block counters.
func Meter(blockType string, sampleRate int) ResetFunc {
	metric := blocks.get(blockType)
	metric.blocks.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			bufferSize     int
			bufferDuration time.Duration
		)
		return func(s int) {
			metric.latency.set(time.Since(calledAt))
			metric.cycles.Add(1)
			metric.samples.Add(int64(s))
			// recalculate buffer duration only when buffer size has changed
			if bufferSize != s {
				bufferSize = s
				bufferDuration = DurationOf(sampleRate, s)
			}
			metric.duration.add(bufferDuration)
			calledAt = time.Now()
		}
	}
}

// DurationOf returns time duration of samples at provided sample rate.
func DurationOf(sampleRate, samples int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(blockType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[blockType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(blockType)
	m.m[blockType] = metric
	return metric
}

type metric struct {
	key      string
	blocks   *expvar.Int
	cycles   *expvar.Int
	samples  *expvar.Int
	latency  *duration
	duration *duration
}

func newMetric(blockType string) metric {
	m := metric{
		key:      blockType,
		blocks:   expvar.NewInt(key(blockType, BlockCounter)),
		cycles:   expvar.NewInt(key(blockType, CycleCounter)),
		samples:  expvar.NewInt(key(blockType, SampleCounter)),
		latency:  &duration{},
		duration: &duration{},
	}
	expvar.Publish(key(blockType, LatencyCounter), m.latency)
	expvar.Publish(key(blockType, DurationCounter), m.duration)
	return m
}

func key(blockType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", blocksLabel, blockType, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
