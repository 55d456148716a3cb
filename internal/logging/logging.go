package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"fraud/internal/configuration"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel converts a configured level name to slog.Level.
// Unknown names fall back to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// NewLogger builds a JSON slog logger from the logger configuration.
// When a file is configured, records are written to it with size-based rotation
// and compression of rotated files; otherwise they go to stdout.
// The returned closer flushes and closes the file and must be called on shutdown.
func NewLogger(config configuration.LoggerConfig) (*slog.Logger, io.Closer) {
	var out io.WriteCloser = nopCloser{os.Stdout}
	if config.File != "" {
		out = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			Compress:   true,
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(config.Level),
	})

	return slog.New(handler), out
}
