package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilingualtube/internal/config"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	emit := func() {
		ctx := services.WithTrackID(context.Background(), "1a2b3c4d5e6f")
		ctx = services.WithLanguage(ctx, "en")
		log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline"))
		log.Info("cues updated", logging.Int("cue_count", 3), logging.String("note", "two words"))
		log.Debug("debug detail")
	}
	return emit, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	if !strings.Contains(readLog(t, filepath.Join(cfg.Logging.Dir, "bilingualtube.log")), "hello") {
		t.Fatal("expected message in log file")
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	emit, path := newFileLogger(t, "console", "info")
	emit()
	content := readLog(t, path)

	for _, fragment := range []string{"INFO [pipeline] Track 1a2b3c4d (en) – cues updated", "    - cue_count: 3", `    - note: "two words"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in console output, got %q", fragment, content)
		}
	}
	if strings.Contains(content, "debug detail") {
		t.Fatal("expected debug line to be filtered at info level")
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	emit, path := newFileLogger(t, "console", "debug")
	emit()
	content := readLog(t, path)
	if !strings.Contains(content, "debug detail") || !strings.Contains(content, ".go:") {
		t.Fatalf("expected debug line with caller, got %q", content)
	}
}

func TestJSONLoggerEmitsStructuredFields(t *testing.T) {
	emit, path := newFileLogger(t, "json", "info")
	emit()
	line := strings.TrimSpace(strings.SplitN(readLog(t, path), "\n", 2)[0])

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "info" || payload["msg"] != "cues updated" {
		t.Fatalf("unexpected level/msg: %v", payload)
	}
	if payload[logging.FieldTrackID] != "1a2b3c4d5e6f" || payload[logging.FieldComponent] != "pipeline" {
		t.Fatalf("expected track and component fields, got %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts field")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "restoration failed", "punctuation_restore_failed")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %s in warning payload %v", key, payload)
		}
	}
}
