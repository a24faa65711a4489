package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depfused.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
targets:
  - https://a.example.com
  - https://b.example.com
timeout: 45s
rate_limit: 5
scoped_only: true
min_confidence: high
chrome_path: /usr/bin/chromium
`)

	fc, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if len(fc.Targets) != 2 {
		t.Fatalf("Targets = %v", fc.Targets)
	}
	if fc.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", fc.Timeout)
	}
	if !fc.ScopedOnly {
		t.Error("expected ScopedOnly true")
	}
	if fc.MinConfidence != "high" {
		t.Errorf("MinConfidence = %q", fc.MinConfidence)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := loadConfigFile("/nonexistent/depfused.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestApplyScanFlagsFlagsWinOverFile(t *testing.T) {
	fc := &fileConfig{RateLimit: 2, MinConfidence: "high", Parallel: 4}
	sf := &scanFlags{rateLimit: 10, minConfidence: "low", parallel: 1}
	timeoutSecs := 30

	// Simulate the caller having explicitly passed -rate-limit on the
	// command line: it should not be overwritten by the file.
	set := map[string]bool{"rate-limit": true}
	fc.applyScanFlags(sf, &timeoutSecs, set)

	if sf.rateLimit != 10 {
		t.Errorf("rateLimit = %v, want 10 (explicit flag should win)", sf.rateLimit)
	}
	if sf.minConfidence != "high" {
		t.Errorf("minConfidence = %q, want high (file should fill in the unset flag)", sf.minConfidence)
	}
	if sf.parallel != 4 {
		t.Errorf("parallel = %d, want 4 (file should fill in the unset flag)", sf.parallel)
	}
}
