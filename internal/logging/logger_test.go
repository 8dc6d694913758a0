package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(format string, buf *bytes.Buffer) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	if format == "json" {
		return slog.New(newJSONHandler(buf, levelVar))
	}
	return slog.New(newPrettyHandler(buf, levelVar))
}

func TestPrettyHandlerPromotesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newBufferLogger("console", &buf), "pipeline")

	logger.Info("stage complete", String(FieldStage, "extracting"), Int(FieldChunk, 2))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline: stage complete") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "stage=extracting") {
		t.Fatalf("expected stage field, got %q", line)
	}
	if !strings.Contains(line, "chunk=2") {
		t.Fatalf("expected chunk field, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as trailing field: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger("console", &buf)

	logger.Warn("upload rejected", String("reason", "file too large"))

	if !strings.Contains(buf.String(), `reason="file too large"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger("console", &buf)

	logger.Info("probe", slog.Group("media", slog.String("codec", "h264"), slog.Int("streams", 2)))

	line := buf.String()
	if !strings.Contains(line, "media.codec=h264") {
		t.Fatalf("expected flattened group key, got %q", line)
	}
	if !strings.Contains(line, "media.streams=2") {
		t.Fatalf("expected flattened group key, got %q", line)
	}
}

func TestJSONHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger("json", &buf)

	logger.Info("hello")

	line := buf.String()
	for _, key := range []string{`"ts":`, `"level":"info"`, `"msg":"hello"`} {
		if !strings.Contains(line, key) {
			t.Fatalf("expected %s in output, got %q", key, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
