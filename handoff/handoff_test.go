package handoff_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pipelined/looper/handoff"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExactlyOnceInOrder(t *testing.T) {
	tests := []struct {
		description string
		produce     time.Duration
		consume     time.Duration
		buffers     int
	}{
		{
			description: "slow consumer",
			produce:     100 * time.Microsecond,
			consume:     500 * time.Microsecond,
			buffers:     200,
		},
		{
			description: "slow producer",
			produce:     500 * time.Microsecond,
			consume:     0,
			buffers:     100,
		},
		{
			description: "no delays",
			buffers:     1000,
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			const size = 4
			slot := handoff.New(size)
			ctx := context.Background()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(test.produce + time.Microsecond)
				defer ticker.Stop()
				for i := 0; i < test.buffers; i++ {
					if test.produce > 0 {
						<-ticker.C
					}
					seq := float64(i)
					err := slot.Put(ctx, func(b []float64) {
						for j := range b {
							b[j] = seq
						}
					})
					assert.NoError(t, err)
				}
			}()

			received := make([]float64, 0, test.buffers)
			for i := 0; i < test.buffers; i++ {
				time.Sleep(test.consume)
				err := slot.Take(ctx, func(b []float64) {
					for j := 1; j < len(b); j++ {
						assert.Equal(t, b[0], b[j], "torn buffer")
					}
					received = append(received, b[0])
				})
				require.NoError(t, err)
			}
			wg.Wait()

			require.Len(t, received, test.buffers)
			for i, v := range received {
				assert.Equal(t, float64(i), v)
			}
		})
	}
}

func TestBackPressure(t *testing.T) {
	slot := handoff.New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fill := func(b []float64) { b[0] = 1 }
	require.NoError(t, slot.Put(ctx, fill))
	// slot is full, producer must wait until context is done
	assert.ErrorIs(t, slot.Put(ctx, fill), context.DeadlineExceeded)

	var got float64
	require.NoError(t, slot.Take(context.Background(), func(b []float64) { got = b[0] }))
	assert.Equal(t, 1.0, got)
}

func TestTimeouts(t *testing.T) {
	slot := handoff.New(2)
	noop := func([]float64) {}

	assert.ErrorIs(t, slot.TakeWithin(5*time.Millisecond, noop), handoff.ErrTimeout)
	assert.NoError(t, slot.PutWithin(5*time.Millisecond, noop))
	assert.ErrorIs(t, slot.PutWithin(5*time.Millisecond, noop), handoff.ErrTimeout)
	assert.NoError(t, slot.TakeWithin(5*time.Millisecond, noop))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, slot.Take(ctx, noop), context.Canceled)
	assert.Equal(t, 2, slot.Size())
}
