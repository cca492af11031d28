// Package logger holds the process-wide logger. Components take a prefixed
// child via For so every line names its origin, e.g. "Buffer: flushed".
package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// Setup applies the level (debug, info, warn, error) and the time zone used
// for timestamps. Empty values keep the defaults. Loggers returned by For
// before Setup keep the old level, so call it first.
func Setup(level, tz string) error {
	if level != "" {
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		root.SetLevel(lvl)
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid time zone %q: %w", tz, err)
		}
		root.SetTimeFunction(func(t time.Time) time.Time { return t.In(loc) })
	}
	return nil
}

// For returns a logger prefixed with the component name
func For(component string) *log.Logger {
	return root.WithPrefix(component)
}

// Root returns the unprefixed logger
func Root() *log.Logger {
	return root
}
