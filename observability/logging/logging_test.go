package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("veledgerd", Options{Env: "test", Level: "debug", Output: &buf})
	logger.Debug("lock created", "account", "ve1abc")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"message":  "lock created",
		"severity": "DEBUG",
		"service":  "veledgerd",
		"env":      "test",
		"account":  "ve1abc",
	} {
		if got, _ := line[key].(string); got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("timestamp key missing: %v", line)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("veledgerd", Options{Level: "warn", Output: &buf})
	logger.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %q", buf.String())
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veledger.log")
	var buf bytes.Buffer
	logger := New("veledgerd", Options{Output: &buf, File: path, MaxSizeMB: 1, MaxBackups: 1})
	logger.Info("persisted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "persisted") {
		t.Fatalf("log file missing line: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v want %v", input, got, want)
		}
	}
}

func TestConsoleDropsEmptyAttrs(t *testing.T) {
	var buf bytes.Buffer
	Console(&buf, false).Info("bootstrap", "run", "", "token", "ETHA")
	out := buf.String()
	if !strings.Contains(out, "bootstrap") || !strings.Contains(out, "ETHA") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "run=") {
		t.Fatalf("empty attribute was not dropped: %q", out)
	}
}
