package recorder_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/recorder"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
	"github.com/pipelined/looper/wav"
)

// a step is a quarter of measure.
const (
	sampleRate = 8
	bufferSize = 4
)

func newBinding(t *testing.T, params block.Params, segments block.Segments) block.Binding {
	t.Helper()
	clock := tempo.New(sampleRate, bufferSize, nil)
	require.NoError(t, clock.Init(tempo.Tempo{BPM: 120, BeatsPerMeasure: 4}))
	return block.Binding{
		Config:     &block.Config{Name: "take", Params: params, Segments: segments},
		Inputs:     []stream.Buffer{make(stream.Buffer, bufferSize)},
		Clock:      clock,
		SampleRate: sampleRate,
		BufferSize: bufferSize,
	}
}

func run(t *testing.T, r *recorder.Recorder, b block.Binding, steps int) []float64 {
	t.Helper()
	var recorded []float64
	for step := 0; step < steps; step++ {
		for i := range b.Input() {
			b.Input()[i] = float64(step) / 10
		}
		if b.Clock.InMeasure(1, 2, 0) {
			recorded = append(recorded, b.Input()...)
		}
		require.NoError(t, r.Write(context.Background()))
		b.Clock.Step()
	}
	return recorded
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	segments := block.Segments{{Start: 1, Stop: 2, Type: block.Input}}
	b := newBinding(t, block.Params{"directory": dir}, segments)
	r, err := recorder.New(b, recorder.DefaultWriters())
	require.NoError(t, err)

	recorded := run(t, r, b, 10)
	require.True(t, r.Complete())
	require.NoError(t, r.Flush())
	assert.Equal(t, filepath.Join(dir, "take.wav"), r.Path())

	clip, format, err := wav.ReadClip(r.Path())
	require.NoError(t, err)
	assert.Equal(t, sampleRate, format.SampleRate)
	assert.Len(t, recorded, 16)
	assert.InDeltaSlice(t, recorded, clip.Samples(), 1e-4)
}

func TestAbandoned(t *testing.T) {
	dir := t.TempDir()
	segments := block.Segments{{Start: 1, Stop: 2, Type: block.Input}}
	b := newBinding(t, block.Params{"directory": dir}, segments)
	r, err := recorder.New(b, recorder.DefaultWriters())
	require.NoError(t, err)

	run(t, r, b, 6)
	assert.False(t, r.Complete())
	require.NoError(t, r.Flush())
	_, err = os.Stat(r.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestDisabled(t *testing.T) {
	dir := t.TempDir()
	segments := block.Segments{{Start: 0, Stop: 1, Type: block.Input}}
	b := newBinding(t, block.Params{"directory": dir, "disabled": true}, segments)
	r, err := recorder.New(b, recorder.DefaultWriters())
	require.NoError(t, err)

	run(t, r, b, 8)
	require.NoError(t, r.Flush())
	_, err = os.Stat(r.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCustomFormat(t *testing.T) {
	var written []float64
	writers := recorder.Writers{
		"raw": func(path string, samples []float64, _ int) error {
			written = append(written, samples...)
			return nil
		},
	}
	segments := block.Segments{{Start: 1, Stop: 2, Type: block.Input}}
	b := newBinding(t, block.Params{"directory": t.TempDir(), "format": "raw"}, segments)
	r, err := recorder.New(b, writers)
	require.NoError(t, err)
	recorded := run(t, r, b, 10)
	require.NoError(t, r.Flush())
	assert.Equal(t, recorded, written)
	assert.Equal(t, "take.raw", filepath.Base(r.Path()))
}

func TestErrors(t *testing.T) {
	input := block.Segments{{Start: 0, Stop: 1, Type: block.Input}}
	tests := []struct {
		name     string
		params   block.Params
		segments block.Segments
		key      string
	}{
		{
			name:     "missing directory",
			params:   block.Params{},
			segments: input,
			key:      "directory",
		},
		{
			name:     "output segment",
			params:   block.Params{"directory": "x"},
			segments: block.Segments{{Start: 0, Stop: 1, Type: block.Output}},
			key:      "segments",
		},
		{
			name:     "two segments",
			params:   block.Params{"directory": "x"},
			segments: append(input, block.Segment{Start: 2, Stop: 3, Type: block.Input}),
			key:      "segments",
		},
		{
			name:     "unsupported format",
			params:   block.Params{"directory": "x", "format": "flac"},
			segments: input,
			key:      "format",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := recorder.New(newBinding(t, test.params, test.segments), recorder.DefaultWriters())
			var cfgErr *block.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, test.key, cfgErr.Key)
		})
	}
}
