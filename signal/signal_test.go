package signal_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/looper/signal"
)

func TestMono(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    []float64
	}{
		{
			ints:        []int{16384, -16384, 8192, 8192},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected:    []float64{0, 0.25},
		},
		{
			ints:        []int{math.MinInt16, 0, 16384},
			numChannels: 1,
			bitDepth:    signal.BitDepth16,
			expected:    []float64{-1, 0, 0.5},
		},
		{
			ints:        []int{1 << 22, 1 << 22, 1 << 22, 1},
			numChannels: 3,
			bitDepth:    signal.BitDepth24,
			expected:    []float64{0.5},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		floats := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}.Mono()
		assert.Equal(t, test.expected, floats)
	}
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, []int{0, 32767, -32767, 16383}, signal.Quantize([]float64{0, 1, -1, 0.5}, signal.BitDepth16))
	assert.Equal(t, []int{32767, -32767}, signal.Quantize([]float64{1.5, -2}, signal.BitDepth16))
	assert.Equal(t, []int{math.MaxInt32}, signal.Quantize([]float64{1}, signal.BitDepth32))
}

func TestValid(t *testing.T) {
	assert.True(t, signal.BitDepth24.Valid())
	assert.False(t, signal.BitDepth(8).Valid())
}
