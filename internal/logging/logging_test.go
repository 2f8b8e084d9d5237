package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Config{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestNewLoggerInvalidLevelFallsBack(t *testing.T) {
	logger, err := NewLogger(Config{
		Level:  "not-a-level",
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meshgen.log")

	logger, err := NewLogger(Config{
		Level:  "info",
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.WithAssetID("asset-1").WithBuildID("build-1").Info("mesh build queued")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "asset-1") || !strings.Contains(out, "build-1") {
		t.Errorf("Log output missing scoped fields: %s", out)
	}
	if !strings.Contains(out, "mesh build queued") {
		t.Errorf("Log output missing message: %s", out)
	}
}

func TestNewDefaultLogger(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Fatalf("Failed to create default logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
}
