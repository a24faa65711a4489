package sourcemap

import (
	"sort"
	"testing"
)

func TestParseExtractsFromNodeModulesPath(t *testing.T) {
	content := `{
		"version": 3,
		"sources": [
			"webpack:///node_modules/lodash/index.js",
			"webpack:///node_modules/@company/utils/src/index.js",
			"webpack:///src/app.js"
		],
		"mappings": "AAAA"
	}`

	pkgs, workspaceOnly, err := Parse(content, "bundle.js.map")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(workspaceOnly) != 0 {
		t.Fatalf("expected no workspace-only names, got %v", workspaceOnly)
	}

	var got []string
	for _, p := range pkgs {
		got = append(got, p.Name)
	}
	sort.Strings(got)
	want := []string{"@company/utils", "lodash"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDirectWebpackReference(t *testing.T) {
	content := `{"version":3,"sources":["webpack:///@internal/auth/src/index.js"],"mappings":"AAAA"}`
	pkgs, _, err := Parse(content, "bundle.js.map")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	for _, p := range pkgs {
		if p.Name == "@internal/auth" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected @internal/auth among %v", pkgs)
	}
}

func TestParseWorkspaceSuppression(t *testing.T) {
	content := `{"version":3,"sources":["webpack:///packages/private-lib/src/x.js","webpack:///node_modules/lodash/x.js"],"mappings":"AAAA"}`

	pkgs, workspaceOnly, err := Parse(content, "bundle.js.map")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(pkgs) != 1 || pkgs[0].Name != "lodash" {
		t.Fatalf("expected only [lodash], got %v", pkgs)
	}
	if len(workspaceOnly) != 1 || workspaceOnly[0] != "private-lib" {
		t.Fatalf("expected workspace-only [private-lib], got %v", workspaceOnly)
	}
}

func TestParseSourcesContentSkipsCommentedImports(t *testing.T) {
	content := `{
		"version": 3,
		"sources": ["src/app.js"],
		"sourcesContent": ["// const x = require('@scope/pkg')\nconst y = require('other-pkg');"],
		"mappings": "AAAA"
	}`

	pkgs, _, err := Parse(content, "bundle.js.map")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, p := range pkgs {
		if p.Name == "@scope/pkg" {
			t.Fatalf("commented-out require must not be extracted, got %v", pkgs)
		}
	}
	found := false
	for _, p := range pkgs {
		if p.Name == "other-pkg" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected other-pkg among %v", pkgs)
	}
}

func TestVariations(t *testing.T) {
	vs := Variations("https://cdn.example.com/assets/bundle.min.js")
	if len(vs) == 0 {
		t.Fatal("expected at least one variation")
	}
	if vs[0] != "https://cdn.example.com/assets/bundle.min.js.map" {
		t.Fatalf("expected direct .map suffix first, got %s", vs[0])
	}
	foundUnminified := false
	for _, v := range vs {
		if v == "https://cdn.example.com/assets/bundle.js.map" {
			foundUnminified = true
		}
	}
	if !foundUnminified {
		t.Fatalf("expected un-minified sibling variation in %v", vs)
	}
}

func TestIsValidSourceMap(t *testing.T) {
	valid := `{"version":3,"sources":["src/main.js"],"mappings":"AAAA"}`
	if !IsValidSourceMap(valid) {
		t.Error("expected valid source map to pass")
	}
	invalid := `{"name":"not a sourcemap"}`
	if IsValidSourceMap(invalid) {
		t.Error("expected non-sourcemap JSON to fail")
	}
	if IsValidSourceMap("<!DOCTYPE html>") {
		t.Error("expected HTML to fail")
	}
}

func TestDecodeInline(t *testing.T) {
	dataURL := "data:application/json;base64,eyJ2ZXJzaW9uIjozfQ=="
	decoded, ok := DecodeInline(dataURL)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if decoded != `{"version":3}` {
		t.Fatalf("got %q", decoded)
	}
}
