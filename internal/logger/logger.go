// Package logger provides the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	SetOutput(os.Stdout, "console")
}

// SetLevel sets the global log level. Unknown values mean info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetFormat switches stdout logging between "console" and "json".
func SetFormat(format string) {
	SetOutput(os.Stdout, format)
}

// SetOutput points Log at w. JSON output drops the caller field and the
// console colors.
func SetOutput(w io.Writer, format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log = zerolog.New(w).
			With().
			Timestamp().
			Str("service", "expense-api").
			Logger()
		return
	}

	Log = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}
