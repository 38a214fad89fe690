package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildLogger returns a logger on stderr at the given level; format "json"
// selects the JSON handler, anything else text.
func BuildLogger(level, format string) *slog.Logger {
	return New(os.Stderr, level, strings.EqualFold(format, "json"))
}

// New builds a logger writing to w, as JSON when json is set.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}
