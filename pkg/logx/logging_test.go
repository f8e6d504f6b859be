package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	// must not panic
	l.Info("hello", String("k", "v"))
	l.With(Int("n", 1)).Error("boom", Err(errors.New("x")))
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("comp", "test"))
	l.Info("task scheduled", String("schedule", "0 9 * * 1,3,5"), Int("count", 2), Err(errors.New("oops")))

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if m["message"] != "task scheduled" || m["comp"] != "test" || m["schedule"] != "0 9 * * 1,3,5" {
		t.Fatalf("unexpected fields: %v", m)
	}
	if caller, _ := m["caller"].(string); !strings.HasPrefix(caller, "logging_test.go:") {
		t.Fatalf("caller = %v", m["caller"])
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %q", buf.String())
	}
	if l.Enabled(LevelDebug) {
		t.Fatal("debug should not be enabled at warn level")
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in, zerolog.InfoLevel); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskmate.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	log.Info("written to file")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "written to file") {
		t.Fatalf("log file missing entry: %q", string(b))
	}
}

func TestApplyReportsBadFileSink(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	svc, log := New(Config{Level: "error"})
	defer svc.Close()

	err := svc.Apply(Config{Level: "error", File: FileConfig{Enabled: true, Path: filepath.Join(blocker, "x.log")}})
	if err == nil {
		t.Fatal("expected error for unusable log path")
	}
	if got := svc.Config().File.Path; !strings.HasSuffix(got, "x.log") {
		t.Fatalf("config not recorded: %q", got)
	}
	log.Debug("still safe to call")
}
