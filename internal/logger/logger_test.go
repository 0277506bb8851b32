package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Info("fox at %d", 1)
	l.Warning("camera miss")
	l.Error("insert failed: %s", "disk full")

	checks := map[string]string{
		InfoFile:    "fox at 1",
		WarningFile: "camera miss",
		ErrorFile:   "insert failed: disk full",
	}
	for file, want := range checks {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q in %q", file, want, string(data))
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Warning("something odd")
	if err := l.CleanLogs(WarningFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, WarningFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty warning log, got %q", string(data))
	}
}

func TestLogger_CleanLogsRejectsUnknownFile(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	if err := l.CleanLogs("../etc/passwd"); err == nil {
		t.Error("Expected error for unknown log file")
	}
}
