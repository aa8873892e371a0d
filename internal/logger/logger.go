// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
// It writes to stderr so stdout stays free for CLI JSON output and MCP stdio.
var Log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Log = zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// SetLevel sets the global log level.
func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetJSON switches to JSON output on stderr.
func SetJSON() {
	SetOutput(os.Stderr)
}

// SetOutput replaces the logger with a JSON logger writing to w.
func SetOutput(w io.Writer) {
	Log = zerolog.New(w).
		With().
		Timestamp().
		Logger()
}
