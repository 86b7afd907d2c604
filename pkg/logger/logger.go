// Package logger builds the zerolog logger shared across the viewer.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a configured logger. LOG_LEVEL selects the level
// (debug/warn/error, default info); ENV=development switches to the
// pretty console writer, everything else logs JSON.
func New() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var level zerolog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Str("service", "geoviewer").
			Logger()
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "geoviewer").
		Logger()
}
