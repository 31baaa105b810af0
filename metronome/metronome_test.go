package metronome_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/metronome"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
	"github.com/pipelined/looper/wav"
)

// With 16 samples per second and 4 samples per buffer at 120 bpm every
// second step is on beat and a measure lasts 8 steps.
const (
	sampleRate = 16
	bufferSize = 4
)

func newBinding(t *testing.T, segments block.Segments, params block.Params) block.Binding {
	t.Helper()
	clock := tempo.New(sampleRate, bufferSize, nil)
	require.NoError(t, clock.Init(tempo.Tempo{BPM: 120, BeatsPerMeasure: 4}))
	return block.Binding{
		Config:     &block.Config{Name: "click", Segments: segments, Params: params},
		Outputs:    []stream.Buffer{make(stream.Buffer, bufferSize)},
		Clock:      clock,
		SampleRate: sampleRate,
		BufferSize: bufferSize,
	}
}

func energy(b []float64) float64 {
	var sum float64
	for _, v := range b {
		sum += math.Abs(v)
	}
	return sum
}

func TestClicks(t *testing.T) {
	params := block.Params{"freq": 2, "duration": 0.25}
	tests := []struct {
		name     string
		segments block.Segments
		clicks   map[int]bool
	}{
		{
			name:   "always",
			clicks: map[int]bool{0: true, 2: true, 4: true, 6: true, 8: true, 10: true, 12: true, 14: true},
		},
		{
			name:     "within segment",
			segments: block.Segments{{Start: 1, Stop: 1.5, Type: block.Output}},
			clicks:   map[int]bool{8: true, 10: true},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := newBinding(t, test.segments, params)
			m, err := metronome.New(b)
			require.NoError(t, err)
			for step := 0; step < 16; step++ {
				require.NoError(t, m.Read(context.Background()))
				if test.clicks[step] {
					assert.InDeltaSlice(t, []float64{0, 0.5 * math.Sqrt2 / 2, 0.5, 0.5 * math.Sqrt2 / 2}, []float64(b.Output()), 1e-9, "step %d", step)
				} else {
					assert.Zero(t, energy(b.Output()), "step %d", step)
				}
				b.Clock.Step()
			}
		})
	}
}

func TestSound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, asset.ClipsDir), 0o755))
	require.NoError(t, wav.WriteClip(filepath.Join(root, asset.ClipsDir, "tick.wav"), []float64{1, 1}, sampleRate, 32))

	b := newBinding(t, nil, block.Params{"sound": "tick", "volume": 1})
	b.Assets = asset.New(root, sampleRate, nil)
	m, err := metronome.New(b)
	require.NoError(t, err)
	require.NoError(t, m.Read(context.Background()))
	assert.InDeltaSlice(t, []float64{1, 1, 0, 0}, []float64(b.Output()), 1e-6)

	b = newBinding(t, nil, block.Params{"sound": "missing"})
	b.Assets = asset.New(root, sampleRate, nil)
	_, err = metronome.New(b)
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	_, err := metronome.New(newBinding(t, block.Segments{{Start: 0, Stop: 1, Type: block.Input}}, nil))
	assert.Error(t, err)
	_, err = metronome.New(newBinding(t, nil, block.Params{"sound": "tick"}))
	assert.Error(t, err)
	_, err = metronome.New(newBinding(t, nil, block.Params{"duration": 0}))
	assert.Error(t, err)
}

func TestBeep(t *testing.T) {
	clip := metronome.Beep(metronome.DefaultFreq, metronome.DefaultDuration, 44100)
	assert.Equal(t, 2205, clip.Len())
}
