package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/modules"
)

func TestRegister(t *testing.T) {
	r := block.NewRegistry()
	require.NoError(t, modules.Register(r))
	assert.Equal(t, []string{
		"Combiner",
		"InputDevice",
		"Instrument",
		"Loop",
		"Looper",
		"LowPass",
		"Metronome",
		"OutputDevice",
		"Recorder",
		"Toggle",
	}, r.Types())

	kinds := map[string]block.Kind{
		"Metronome":    block.KindSource,
		"InputDevice":  block.KindSource,
		"Looper":       block.KindTransformer,
		"LowPass":      block.KindTransformer,
		"Recorder":     block.KindSink,
		"OutputDevice": block.KindSink,
	}
	for name, expected := range kinds {
		kind, err := r.Kind(name)
		require.NoError(t, err)
		assert.Equal(t, expected, kind, name)
	}

	// second registration fails on duplicate names.
	assert.ErrorIs(t, modules.Register(r), block.ErrDuplicateType)
}

func TestFormats(t *testing.T) {
	writers := modules.Writers()
	assert.Contains(t, writers, "wav")
	assert.Contains(t, writers, "mp3")
	assert.Contains(t, modules.Decoders(), ".mp3")
}
