// Package logger holds the shared structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once sync.Once
	root *log.Logger
)

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	})
}

// Default returns the process-wide root logger writing to stderr
func Default() *log.Logger {
	once.Do(func() {
		root = newLogger(os.Stderr)
	})
	return root
}

// SetLevel parses level ("debug", "info", "warn", "error") and applies it to the root logger
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Default().SetLevel(lvl)
	return nil
}

// For returns a child of the root logger tagged with a component prefix
func For(component string) *log.Logger {
	return Default().WithPrefix(component)
}

// OrDefault returns l, or a prefixed root logger when l is nil
func OrDefault(l *log.Logger, component string) *log.Logger {
	if l != nil {
		return l
	}
	return For(component)
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	return newLogger(io.Discard)
}
