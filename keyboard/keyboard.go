// Package keyboard collects key events for the dispatch loop. Keys are
// queued from any goroutine and delivered as a snapshot once per cycle.
package keyboard

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/pipelined/looper/log"
)

// interrupt is the byte sent by terminal in raw mode on Ctrl-C.
const interrupt = 0x03

// Keyboard is a thread-safe key queue.
type Keyboard struct {
	mu      sync.Mutex
	queued  []string
	ended   bool
	pressed []string

	restore func() error
	done    chan struct{}
	log     log.Logger
}

// New returns an empty keyboard.
func New(logger log.Logger) *Keyboard {
	if logger == nil {
		logger = log.Silent()
	}
	return &Keyboard{log: logger}
}

// Queue adds a key event. It's delivered on the next Poll.
func (k *Keyboard) Queue(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queued = append(k.queued, key)
}

// End marks the end of input. Next Poll returns false.
func (k *Keyboard) End() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ended = true
}

// Poll takes the snapshot of keys queued since the previous Poll. It
// returns false when input has ended.
func (k *Keyboard) Poll() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed, k.queued = k.queued, nil
	return !k.ended
}

// Pressed returns keys of the current cycle. Must be called from the
// goroutine which calls Poll.
func (k *Keyboard) Pressed() []string {
	return k.pressed
}

// Reset clears the queue and the end of input flag.
func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queued, k.pressed, k.ended = nil, nil, false
}

// Listen reads key events from r until EOF or interrupt byte. If r is a
// terminal it's switched to raw mode until Close is called.
func (k *Keyboard) Listen(r io.Reader) error {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		k.restore = func() error {
			return term.Restore(fd, state)
		}
	}
	k.done = make(chan struct{})
	go k.read(r)
	return nil
}

func (k *Keyboard) read(r io.Reader) {
	defer close(k.done)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, key := range string(buf[:n]) {
			if key == interrupt {
				k.log.Debug("keyboard: interrupt received")
				k.End()
				return
			}
			k.Queue(string(key))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				k.log.Errorf("keyboard: %v", err)
			}
			k.End()
			return
		}
	}
}

// Done is closed when the listener exits.
func (k *Keyboard) Done() <-chan struct{} {
	return k.done
}

// Close restores the terminal state.
func (k *Keyboard) Close() error {
	if k.restore == nil {
		return nil
	}
	restore := k.restore
	k.restore = nil
	return restore()
}
