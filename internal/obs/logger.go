// Package obs centralizes observability: a zerolog-based structured logger
// and the Prometheus metrics surface served at /metrics.
package obs

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger. level follows the config
// option table's `log_level` (integer verbosity, lower is quieter),
// mapped onto zerolog's level scale. pretty selects the console writer
// (dev) over raw JSON (prod/containers).
func NewLogger(level int, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).
		Level(levelFromVerbosity(level)).
		With().
		Timestamp().
		Logger()
}

// levelFromVerbosity maps the config table's integer log_level (0=quiet,
// higher=chattier) onto zerolog levels, matching the teacher's config.go
// convention of a plain int knob rather than named levels.
func levelFromVerbosity(v int) zerolog.Level {
	switch {
	case v <= 0:
		return zerolog.ErrorLevel
	case v == 1:
		return zerolog.WarnLevel
	case v == 2:
		return zerolog.InfoLevel
	case v == 3:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
