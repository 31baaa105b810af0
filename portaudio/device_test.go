//go:build portaudio
// +build portaudio

package portaudio

import (
	"errors"
	"testing"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	devices := []*portaudio.DeviceInfo{
		{Name: "Built-in Microphone", MaxInputChannels: 1},
		{Name: "Built-in Output", MaxOutputChannels: 2},
		{Name: "USB Audio Interface", MaxInputChannels: 2, MaxOutputChannels: 2},
	}
	tests := []struct {
		query    string
		input    bool
		expected string
	}{
		{query: "built-in", input: true, expected: "Built-in Microphone"},
		{query: "built-in", input: false, expected: "Built-in Output"},
		{query: "usb", input: true, expected: "USB Audio Interface"},
		{query: "USB", input: false, expected: "USB Audio Interface"},
	}
	for _, test := range tests {
		d, err := match(devices, test.query, test.input)
		require.NoError(t, err)
		assert.Equal(t, test.expected, d.Name)
	}

	_, err := match(devices, "Microphone", false)
	require.True(t, errors.Is(err, ErrDeviceNotFound))
	for _, d := range devices {
		assert.Contains(t, err.Error(), d.Name)
	}
}

func TestFailure(t *testing.T) {
	f := newFailure()
	assert.NoError(t, f.err())
	first := errors.New("first")
	f.set(first)
	f.set(errors.New("second"))
	assert.Equal(t, first, f.err())
	// error is kept for subsequent calls.
	assert.Equal(t, first, f.err())
}
