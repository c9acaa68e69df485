package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger: JSON to stdout, RFC 3339 timestamps, the
// service name on every line. An unknown level falls back to info.
func New(service, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(os.Stdout).
		Level(parsed).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
