package looper

import (
	"time"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/keyboard"
	"github.com/pipelined/looper/log"
)

// Option provides a way to set functional parameters to runner.
type Option func(*Runner)

// WithLogger sets the runner logger. Blocks receive its entries with
// block name, type and uid fields.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithKeyboard sets the key events source.
func WithKeyboard(k *keyboard.Keyboard) Option {
	return func(r *Runner) {
		r.keyboard = k
	}
}

// WithStopTimeout sets how long Stop waits for dispatch loop to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.stopTimeout = d
	}
}

// WithWarmup sets number of cycles executed before the main loop. Warm-up
// cycles read sources and prime sinks which implement block.Primer. The
// clock doesn't advance during warm-up.
func WithWarmup(cycles int) Option {
	return func(r *Runner) {
		r.warmup = cycles
	}
}

// WithAssets sets the assets root directory.
func WithAssets(root string) Option {
	return func(r *Runner) {
		r.assets = root
	}
}

// WithDecoder registers clip decoder for file extension.
func WithDecoder(ext string, fn asset.DecodeFunc) Option {
	return func(r *Runner) {
		r.decoders[ext] = fn
	}
}

// WithMetrics enables per block type metrics.
func WithMetrics() Option {
	return func(r *Runner) {
		r.metrics = true
	}
}
