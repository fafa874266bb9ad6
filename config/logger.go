package config

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a slog.Logger configured from the environment and cfg.
// Production uses JSON handler; otherwise text handler.
// LOG_LEVEL may be: debug, info, warn, error (default: info).
// When LOG_FILE is set, output goes to that file with size-based rotation;
// the returned closer releases it and is a no-op otherwise.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer) {
	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.Log.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		w, closer = rotating, rotating
	}
	return newLogger(w, env, parseLevel(cfg.Log.Level)), closer
}

func newLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
