package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service-wide logger. Components derive their own with
// With().Str("component", ...).
func New(service string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
