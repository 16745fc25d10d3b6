// Package logger provides the component loggers used across the service.
package logger

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const colorReset = "\033[0m"

var ErrNilWriter = errors.New("log writer is nil")

// Logger writes leveled, component-tagged log lines.
type Logger struct {
	entry *logrus.Entry
	tag   string
}

// New creates a logger whose lines are tagged with prefix, drawn in the given
// terminal color, and written to out.
func New(prefix string, color string, out io.Writer) (*Logger, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableQuote:    true,
	})

	tag := fmt.Sprintf("[%s]", prefix)
	if color != "" {
		tag = color + tag + colorReset
	}

	return &Logger{
		entry: base.WithField("component", prefix),
		tag:   tag,
	}, nil
}

// SetLevel changes the minimum level written, e.g. "debug", "info", "warning", "error".
func (l *Logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.entry.Logger.SetLevel(lvl)
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.entry.Debug(l.tag + " " + msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.entry.Info(l.tag + " " + msg)
}

// Warning logs a warning.
func (l *Logger) Warning(msg string) {
	l.entry.Warn(l.tag + " " + msg)
}

// Error logs an error.
func (l *Logger) Error(msg string) {
	l.entry.Error(l.tag + " " + msg)
}
