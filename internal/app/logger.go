// Package app assembles the tracker: configuration, logger, storage, auth
// and the HTTP server.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tracker/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// DefaultLogger is used until the configuration has been read.
func DefaultLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

// NewLogger builds the application logger for env. Local runs get a
// human-readable console writer at trace level.
func NewLogger(env string, out io.Writer) (zerolog.Logger, error) {
	var (
		level zerolog.Level
		w     = out
	)
	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		w = consoleWriter
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown env: %s", env)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger(), nil
}
