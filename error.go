package looper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRunning is returned when Run is called on running runner.
	ErrAlreadyRunning = errors.New("runner is already running")
	// ErrStopTimeout is returned when dispatch loop didn't exit in time.
	ErrStopTimeout = errors.New("stop timeout")
)

// ErrorRun is returned if runner was successfully started, but execution
// and/or flush failed.
type ErrorRun struct {
	ErrExec  error
	ErrFlush error
}

func (e *ErrorRun) Error() string {
	switch {
	case e.ErrExec != nil && e.ErrFlush != nil:
		return fmt.Sprintf("flush error: %v after execute error: %v", e.ErrFlush, e.ErrExec)
	case e.ErrExec != nil:
		return fmt.Sprintf("execute error: %v", e.ErrExec)
	case e.ErrFlush != nil:
		return fmt.Sprintf("flush error: %v", e.ErrFlush)
	}
	return ""
}

// Is checks if any of errors match provided sentinel error.
func (e *ErrorRun) Is(err error) bool {
	if e.ErrExec != nil && errors.Is(e.ErrExec, err) {
		return true
	}
	if e.ErrFlush != nil && errors.Is(e.ErrFlush, err) {
		return true
	}
	return false
}

// runError returns untyped nil if both errors are nil.
func runError(errExec, errFlush error) error {
	if errExec == nil && errFlush == nil {
		return nil
	}
	return &ErrorRun{ErrExec: errExec, ErrFlush: errFlush}
}

// execErrors wraps errors that might occure when multiple blocks
// are failing.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows to match any of errors.
func (e execErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error is list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
