// Package logging builds the two loggers used by the converter: one for
// progress on stdout and one for failures on stderr. Both travel through
// context.Context.
package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Prefix is prepended to every log line.
const Prefix = "bpmn-to-image"

// ErrInvalidFormat is returned for an unknown log format name.
var ErrInvalidFormat = errors.New("invalid log format")

// Levels and Formats list the accepted names, default first.
var (
	Levels  = []string{"info", "debug", "warn", "error"}
	Formats = []string{"text", "json", "logfmt"}
)

// Loggers pairs the standard output log with the error log.
type Loggers struct {
	Out *log.Logger
	Err *log.Logger
}

// New creates both loggers with the same level and format.
func New(out, errW io.Writer, level, format string) (*Loggers, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, errors.Wrapf(ErrInvalidFormat, "%q", format)
	}

	newLogger := func(w io.Writer, lvl log.Level) *log.Logger {
		return log.NewWithOptions(w, log.Options{
			Level:           lvl,
			Prefix:          Prefix,
			ReportTimestamp: true,
			Formatter:       formatter,
		})
	}

	errLevel := lvl
	if errLevel < log.ErrorLevel {
		errLevel = log.ErrorLevel
	}
	return &Loggers{
		Out: newLogger(out, lvl),
		Err: newLogger(errW, errLevel),
	}, nil
}

// Discard returns loggers that drop everything.
func Discard() *Loggers {
	return &Loggers{
		Out: log.New(io.Discard),
		Err: log.New(io.Discard),
	}
}

type key struct{}

var loggersKey = key{}

func WithLoggers(ctx context.Context, l *Loggers) context.Context {
	return context.WithValue(ctx, loggersKey, l)
}

// FromContext returns the loggers stored in ctx, or Discard() if there are none.
func FromContext(ctx context.Context) *Loggers {
	if l, ok := ctx.Value(loggersKey).(*Loggers); ok {
		return l
	}
	return Discard()
}
