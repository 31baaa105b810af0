package stream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/looper/stream"
)

const bufferSize = 8

func TestRouter(t *testing.T) {
	r := stream.NewRouter(bufferSize, nil)

	created, err := r.Create("mic")
	require.NoError(t, err)
	assert.Len(t, created, bufferSize)

	_, err = r.Create("mic")
	assert.ErrorIs(t, err, stream.ErrChannelExists)

	_, err = r.Bind("guitar")
	assert.ErrorIs(t, err, stream.ErrChannelNotFound)

	bound, err := r.Bind("mic")
	require.NoError(t, err)
	created[3] = 0.5
	assert.Equal(t, 0.5, bound[3], "handles must alias the same buffer")
	bound[0] = -1
	assert.Equal(t, -1.0, created[0])

	// new channels don't break existing aliases
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := r.Create(name)
		require.NoError(t, err)
	}
	again, err := r.Bind("mic")
	require.NoError(t, err)
	again[7] = 0.25
	assert.Equal(t, 0.25, created[7])
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "mic"}, r.Names())

	r.ClearAll()
	assert.Empty(t, r.Names())
	_, err = r.Bind("mic")
	assert.ErrorIs(t, err, stream.ErrChannelNotFound)
	_, err = r.Create("mic")
	assert.NoError(t, err)
}

func TestBuffer(t *testing.T) {
	b := stream.Buffer{1, 2, 3}
	b.Add([]float64{1, 1})
	assert.Equal(t, stream.Buffer{2, 3, 3}, b)
	assert.Equal(t, 3, b.CopyFrom([]float64{4, 5, 6, 7}))
	assert.Equal(t, stream.Buffer{4, 5, 6}, b)
	b.Zero()
	assert.Equal(t, stream.Buffer{0, 0, 0}, b)
}

func TestClip(t *testing.T) {
	var empty *stream.Clip
	assert.Equal(t, 0, empty.Len())

	c := stream.NewClip(nil)
	c.Append([]float64{1, 2})
	c.Append([]float64{3})
	assert.Equal(t, 3, c.Len())
	c.Scale(0.5)
	assert.Equal(t, []float64{0.5, 1, 1.5}, c.Samples())

	cp := c.Copy()
	cp.Scale(2)
	assert.Equal(t, []float64{0.5, 1, 1.5}, c.Samples())
	assert.Equal(t, []float64{1, 2, 3}, cp.Samples())
	assert.Equal(t, 0, empty.Copy().Len())
}
