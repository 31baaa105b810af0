// Package log provides loggers for looper components.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is the logger interface accepted by looper components.
type Logger = logrus.FieldLogger

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("LOOPER_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled when
// LOOPER_DEBUG environment variable is set to true.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger which discards everything. It's used when no
// logger is provided.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Fields is a set of logger fields.
type Fields = logrus.Fields
