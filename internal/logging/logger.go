// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/INSANE0777/AIS-GARDEN/internal/config"
)

// New creates the root logger for app and installs it as the zerolog global.
// Output goes to stderr so that commands can keep stdout for their results.
func New(app string, cfg config.LogConfig) zerolog.Logger {
	return NewWriter(os.Stderr, app, cfg)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, app string, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
