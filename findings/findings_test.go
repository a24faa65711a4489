package findings

import (
	"testing"

	"github.com/depfused/depfused/types"
)

func TestShouldReport(t *testing.T) {
	cases := []struct {
		result types.NpmCheckResult
		want   bool
	}{
		{types.NpmCheckResult{Kind: types.NpmScopeNotClaimed, Name: "@acme/foo"}, true},
		{types.NpmCheckResult{Kind: types.NpmNotFound, Name: "unscoped-pkg"}, true},
		{types.NpmCheckResult{Kind: types.NpmNotFound, Name: "@scoped/pkg"}, false},
		{types.NpmCheckResult{Kind: types.NpmExists, Name: "lodash"}, true},
		{types.NpmCheckResult{Kind: types.NpmError, Name: "whatever"}, true},
	}
	for _, c := range cases {
		if got := ShouldReport(c.result); got != c.want {
			t.Errorf("ShouldReport(%+v) = %v, want %v", c.result, got, c.want)
		}
	}
}

func TestBuildScopeNotClaimedIsCritical(t *testing.T) {
	pkg := types.Package{Name: "@acme/foo"}
	result := types.NpmCheckResult{Kind: types.NpmScopeNotClaimed, Name: "@acme/foo", Scope: "@acme"}
	f := Build(pkg, result)
	if f.Severity != types.SeverityCritical {
		t.Fatalf("expected Critical, got %v", f.Severity)
	}
}

func TestBuildNotFoundInternalIsHigh(t *testing.T) {
	pkg := types.Package{Name: "my-internal-lib"}
	result := types.NpmCheckResult{Kind: types.NpmNotFound, Name: "my-internal-lib"}
	f := Build(pkg, result)
	if f.Severity != types.SeverityHigh {
		t.Fatalf("expected High for internal-looking name, got %v", f.Severity)
	}
}

func TestBuildNotFoundIsMedium(t *testing.T) {
	pkg := types.Package{Name: "some-pkg"}
	result := types.NpmCheckResult{Kind: types.NpmNotFound, Name: "some-pkg"}
	f := Build(pkg, result)
	if f.Severity != types.SeverityMedium {
		t.Fatalf("expected Medium, got %v", f.Severity)
	}
}

func TestDedupKeepsHighestConfidence(t *testing.T) {
	packages := []types.Package{
		{Name: "lodash", Confidence: types.ConfidenceLow, ExtractionMethod: types.MethodComment},
		{Name: "lodash", Confidence: types.ConfidenceHigh, ExtractionMethod: types.MethodSourceMap},
	}
	out := Dedup(packages)
	if len(out) != 1 {
		t.Fatalf("expected 1 deduped package, got %d", len(out))
	}
	if out[0].Confidence != types.ConfidenceHigh {
		t.Fatalf("expected high-confidence version to win, got %v", out[0].Confidence)
	}
}

func TestDedupSkipsFalsePositives(t *testing.T) {
	packages := []types.Package{
		{Name: "id", Confidence: types.ConfidenceHigh, ExtractionMethod: types.MethodImport},
		{Name: "react", Confidence: types.ConfidenceHigh, ExtractionMethod: types.MethodImport},
	}
	out := Dedup(packages)
	if len(out) != 1 || out[0].Name != "react" {
		t.Fatalf("expected only react to survive, got %v", out)
	}
}

func TestDedupSkipsShortWebpackChunkArtifact(t *testing.T) {
	packages := []types.Package{
		{Name: "deadbeef", Confidence: types.ConfidenceMedium, ExtractionMethod: types.MethodWebpackChunk},
	}
	out := Dedup(packages)
	if len(out) != 0 {
		t.Fatalf("expected webpack chunk artifact without hyphen/scope to be skipped, got %v", out)
	}
}
