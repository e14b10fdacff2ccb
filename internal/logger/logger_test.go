package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(Options{Level: "info", Output: "file", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Debug("hidden")
	l.Info("company settled")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(data, &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", data, err)
	}
	if line["message"] != "company settled" {
		t.Errorf("message: got %v", line["message"])
	}
	if line["level"] != "INFO" {
		t.Errorf("level: got %v", line["level"])
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []Options{
		{Level: "loud"},
		{Level: "info", Output: "syslog"},
		{Level: "info", Output: "file"},
	}
	for _, opts := range tests {
		if _, err := New(opts); err == nil {
			t.Errorf("New(%+v): expected error", opts)
		}
	}
}
