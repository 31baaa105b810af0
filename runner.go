package looper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/keyboard"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/tempo"
)

const (
	// DefaultStopTimeout is how long Stop waits for dispatch loop to exit.
	DefaultStopTimeout = time.Second
	// DefaultWarmup is number of silent cycles before the main loop.
	DefaultWarmup = 5
	// DefaultAssets is the default assets root directory.
	DefaultAssets = "assets"
)

// Runner executes looper pipelines. Only one pipeline can run at a time.
type Runner struct {
	registry    *block.Registry
	keyboard    *keyboard.Keyboard
	log         log.Logger
	stopTimeout time.Duration
	warmup      int
	assets      string
	decoders    map[string]asset.DecodeFunc
	metrics     bool

	mu        sync.Mutex
	state     State
	clock     *tempo.Clock
	execution *execution
}

// execution holds the signals of a single Run call.
type execution struct {
	stop   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	exited chan struct{}
	done   chan struct{}
}

func (e *execution) requestStop() {
	e.once.Do(func() {
		close(e.stop)
		e.cancel()
	})
}

// New returns a runner which allocates blocks from the registry.
func New(registry *block.Registry, options ...Option) *Runner {
	r := Runner{
		registry:    registry,
		stopTimeout: DefaultStopTimeout,
		warmup:      DefaultWarmup,
		assets:      DefaultAssets,
		decoders:    make(map[string]asset.DecodeFunc),
	}
	for _, option := range options {
		option(&r)
	}
	if r.log == nil {
		r.log = log.Silent()
	}
	if r.keyboard == nil {
		r.keyboard = keyboard.New(r.log)
	}
	return &r
}

// Run parses the project document, allocates every block and executes the
// dispatch loop until Stop is called, the context is done, keyboard input
// has ended or any block fails. Blocks are always released before Run
// returns.
func (r *Runner) Run(ctx context.Context, project []byte) error {
	r.mu.Lock()
	if r.state != Stopped {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	e := &execution{
		stop:   make(chan struct{}),
		cancel: cancel,
		exited: make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.execution = e
	r.state = Running
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		r.state = Stopped
		r.mu.Unlock()
		close(e.done)
	}()
	r.keyboard.Reset()

	p, err := r.build(project)
	if err != nil {
		close(e.exited)
		r.log.Errorf("failed to build pipeline: %v", err)
		return err
	}
	r.mu.Lock()
	r.clock = p.clock
	r.mu.Unlock()

	r.log.WithField("channels", p.router.String()).Infof("pipeline started")
	errExec := r.dispatch(ctx, e, p)
	close(e.exited)

	r.mu.Lock()
	r.state = Stopping
	r.mu.Unlock()
	errFlush := p.release()
	if errExec != nil {
		r.log.Errorf("pipeline failed: %v", errExec)
	}
	if errFlush != nil {
		r.log.Errorf("pipeline release failed: %v", errFlush)
	}
	r.log.WithField("measure", p.clock.CurrentMeasure()).Infof("pipeline stopped")
	return runError(errExec, errFlush)
}

// dispatch executes warm-up and main cycles.
func (r *Runner) dispatch(ctx context.Context, e *execution, p *pipeline) error {
	for i := 0; i < r.warmup; i++ {
		if stopped(ctx, e) {
			return nil
		}
		if err := p.warmup(ctx); err != nil {
			return cycleError(ctx, err)
		}
	}
	if p.startMeasure > 0 {
		p.clock.Skip(p.startMeasure)
	}
	for {
		if !r.keyboard.Poll() {
			r.log.Debug("end of input")
			return nil
		}
		if err := p.cycle(ctx); err != nil {
			return cycleError(ctx, err)
		}
		p.clock.Step()
		if stopped(ctx, e) {
			return nil
		}
	}
}

// cycleError ignores errors caused by stop request or done context.
func cycleError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func stopped(ctx context.Context, e *execution) bool {
	select {
	case <-e.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Stop requests dispatch loop to exit and waits until blocks are
// released. ErrStopTimeout is returned if loop didn't exit within stop
// timeout. It's safe to call Stop on stopped runner.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.state == Stopped || r.execution == nil {
		r.mu.Unlock()
		return nil
	}
	e := r.execution
	r.state = Stopping
	r.mu.Unlock()

	e.requestStop()
	select {
	case <-e.exited:
	case <-time.After(r.stopTimeout):
		return fmt.Errorf("%w: dispatch loop didn't exit in %v", ErrStopTimeout, r.stopTimeout)
	}
	<-e.done
	return nil
}

// QueueKeypress queues key event for the next cycle.
func (r *Runner) QueueKeypress(key string) {
	r.keyboard.Queue(key)
}

// IsRunning returns true if dispatch loop is executing.
func (r *Runner) IsRunning() bool {
	return r.State() == Running
}

// State returns the current runner state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentMeasure returns the position of the latest pipeline clock.
func (r *Runner) CurrentMeasure() float64 {
	r.mu.Lock()
	clock := r.clock
	r.mu.Unlock()
	if clock == nil {
		return 0
	}
	return clock.CurrentMeasure()
}
