package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures diagnostic logging.
type Options struct {
	Verbose bool // debug level
	Quiet   bool // warnings and errors only
	// File, when set, receives log output instead of Writer. Used while the
	// TUI owns the terminal.
	File string
	// Writer is the destination when File is empty. Nil discards output.
	Writer io.Writer
}

// Level returns the logrus level the options select.
func (o Options) Level() logrus.Level {
	switch {
	case o.Verbose:
		return logrus.DebugLevel
	case o.Quiet:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

// Setup configures the standard logrus logger. The returned closer releases
// the log file, if one was opened.
func Setup(opts Options) (io.Closer, error) {
	logrus.SetLevel(opts.Level())
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: opts.File == "",
		FullTimestamp:    opts.File != "",
	})

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logrus.SetOutput(f)
		return f, nil
	}

	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	logrus.SetOutput(w)
	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
