package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger on stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env string) zerolog.Logger { return NewLoggerTo(os.Stdout, env) }

// NewLoggerTo is NewLogger on an arbitrary writer. The CLI logs to stderr so stdout stays JSON.
func NewLoggerTo(w io.Writer, env string) zerolog.Logger {
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithLevel applies a textual level ("debug", "warn", ...). Unknown levels keep info.
func WithLevel(l zerolog.Logger, level string) zerolog.Logger {
	lv, err := zerolog.ParseLevel(level)
	if err != nil || lv == zerolog.NoLevel {
		lv = zerolog.InfoLevel
	}
	return l.Level(lv)
}
