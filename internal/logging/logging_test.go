package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ContentGenerator/internal/config"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"":        slog.LevelDebug,
		"trace":   slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestNewWithWritersFansOut(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	logger := NewWithWriters(&console, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("run finished", "processed", 3)

	if !strings.Contains(console.String(), "run finished") || strings.Contains(console.String(), "hidden") {
		t.Fatalf("unexpected console output: %q", console.String())
	}

	var record map[string]any
	if err := json.Unmarshal(file.Bytes(), &record); err != nil {
		t.Fatalf("file output is not one JSON record: %v (%q)", err, file.String())
	}
	if record["msg"] != "run finished" || record["processed"] != float64(3) {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewOpensLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "contentgen.log")
	logger, closeFn, err := New(config.LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("expected JSON record in file, got %q", data)
	}

	if _, _, err := New(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")}); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
