package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"ContentGenerator/internal/config"
)

// New creates a console slog.Logger and, when cfg.File is set, fans out
// JSON records to that file. The returned func closes the file.
func New(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	level := levelFromString(cfg.Level)
	if strings.TrimSpace(cfg.File) == "" {
		return NewWithWriters(os.Stdout, nil, level), func() error { return nil }, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
	}
	return NewWithWriters(os.Stdout, file, level), file.Close, nil
}

// NewWithWriters writes text to console and JSON to file; a nil file
// disables the JSON output.
func NewWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	if file == nil {
		return slog.New(consoleHandler)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
