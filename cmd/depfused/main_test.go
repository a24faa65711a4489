package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/depfused/depfused/types"
)

func TestCollectTargetsPositionalAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	content := "example.com\n# a comment\n\nhttps://already-scheme.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := collectTargets([]string{"foo.com"}, path)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"https://foo.com", "https://example.com", "https://already-scheme.com"}
	if len(targets) != len(want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
	for i, w := range want {
		if targets[i] != w {
			t.Errorf("targets[%d] = %q, want %q", i, targets[i], w)
		}
	}
}

func TestCollectTargetsMissingFile(t *testing.T) {
	if _, err := collectTargets(nil, "/nonexistent/path/targets.txt"); err == nil {
		t.Fatal("expected an error for a missing targets file")
	}
}

func TestParseConfidence(t *testing.T) {
	cases := map[string]types.Confidence{
		"low":    types.ConfidenceLow,
		"MEDIUM": types.ConfidenceMedium,
		"High":   types.ConfidenceHigh,
	}
	for in, want := range cases {
		got, err := parseConfidence(in)
		if err != nil {
			t.Fatalf("parseConfidence(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseConfidence(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseConfidence("bogus"); err == nil {
		t.Fatal("expected an error for an invalid confidence level")
	}
}

func TestRootFlagOrEnv(t *testing.T) {
	if got := rootFlagOrEnv([]string{"scan", "--telegram-token", "abc"}, "telegram-token", "DEPFUSED_TELEGRAM_TOKEN"); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
	if got := rootFlagOrEnv([]string{"scan", "--telegram-token=xyz"}, "telegram-token", "DEPFUSED_TELEGRAM_TOKEN"); got != "xyz" {
		t.Errorf("got %q, want xyz", got)
	}

	t.Setenv("DEPFUSED_TELEGRAM_TOKEN", "from-env")
	if got := rootFlagOrEnv([]string{"scan"}, "telegram-token", "DEPFUSED_TELEGRAM_TOKEN"); got != "from-env" {
		t.Errorf("got %q, want from-env (env fallback)", got)
	}
}

func TestCaptureConfig(t *testing.T) {
	cfg := captureConfig(0, true, "/usr/bin/chromium")
	if !cfg.Headless {
		t.Error("expected Headless to default true")
	}
	if !cfg.FastMode {
		t.Error("expected FastMode to be passed through")
	}
	if cfg.ChromePath != "/usr/bin/chromium" {
		t.Errorf("ChromePath = %q", cfg.ChromePath)
	}
}
