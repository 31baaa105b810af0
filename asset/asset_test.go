package asset_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/wav"
)

func setup(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, asset.ClipsDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, asset.InstrumentsDir), 0o755))
	return root
}

func TestClip(t *testing.T) {
	root := setup(t)
	samples := []float64{0.5, -0.5, 0.25, 0}
	require.NoError(t, wav.WriteClip(filepath.Join(root, asset.ClipsDir, "kick.wav"), samples, 8000, 32))

	s := asset.New(root, 8000, nil)
	for _, name := range []string{"kick", "kick.wav"} {
		clip, err := s.Clip(name)
		require.NoError(t, err)
		assert.InDeltaSlice(t, samples, clip.Samples(), 1e-6)
	}

	// returned clips are copies.
	clip, err := s.Clip("kick")
	require.NoError(t, err)
	clip.Scale(0)
	clip, err = s.Clip("kick")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, clip.Samples()[0], 1e-6)

	_, err = s.Clip("snare")
	assert.True(t, errors.Is(err, asset.ErrNotFound))
}

func TestClipResampled(t *testing.T) {
	root := setup(t)
	require.NoError(t, wav.WriteClip(filepath.Join(root, asset.ClipsDir, "tone.wav"), make([]float64, 100), 8000, 16))
	s := asset.New(root, 16000, nil)
	clip, err := s.Clip("tone")
	require.NoError(t, err)
	assert.Equal(t, 200, clip.Len())
}

func TestCustomDecoder(t *testing.T) {
	root := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, asset.ClipsDir, "beep.raw"), nil, 0o644))
	s := asset.New(root, 8000, nil)
	s.Register(".raw", func(string) (*stream.Clip, int, error) {
		return stream.NewClip([]float64{1, 2}), 8000, nil
	})
	clip, err := s.Clip("beep")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, clip.Samples())
}

func TestInstrument(t *testing.T) {
	root := setup(t)
	def := `{"sounds": [{"key": "a", "file": "kick"}, {"key": "s", "file": "snare.wav"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, asset.InstrumentsDir, "drums.json"), []byte(def), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, asset.InstrumentsDir, "broken.json"), []byte(`{"sounds": [{"key": "a"}]}`), 0o644))

	s := asset.New(root, 44100, nil)
	inst, err := s.Instrument("drums")
	require.NoError(t, err)
	assert.Equal(t, []asset.Sound{{Key: "a", File: "kick"}, {Key: "s", File: "snare.wav"}}, inst.Sounds)

	_, err = s.Instrument("broken")
	assert.Error(t, err)
	_, err = s.Instrument("missing")
	assert.True(t, errors.Is(err, asset.ErrNotFound))
}

func TestResample(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1, 1}, asset.Resample([]float64{0, 1}, 1, 2))
	assert.Equal(t, []float64{0, 2}, asset.Resample([]float64{0, 1, 2, 3}, 2, 1))
	same := []float64{1, 2}
	assert.Equal(t, same, asset.Resample(same, 5, 5))
}
