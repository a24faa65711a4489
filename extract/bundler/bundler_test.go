package bundler

import "testing"

func TestDetectTurbopack(t *testing.T) {
	content := `__turbopack_require__("[project]/node_modules/lodash/index.js")`
	got, ok := Detect(content)
	if !ok || got != TypeTurbopack {
		t.Fatalf("expected Turbopack, got %v, %v", got, ok)
	}
}

func TestDetectVite(t *testing.T) {
	content := `import { x } from "/node_modules/.vite/deps/lodash.js"`
	got, ok := Detect(content)
	if !ok || got != TypeVite {
		t.Fatalf("expected Vite, got %v, %v", got, ok)
	}
}

func TestDetectParcel(t *testing.T) {
	content := `parcelRequire("lodash")`
	got, ok := Detect(content)
	if !ok || got != TypeParcel {
		t.Fatalf("expected Parcel, got %v, %v", got, ok)
	}
}

func TestDetectEsbuild(t *testing.T) {
	content := `var lodash = __require("lodash")`
	got, ok := Detect(content)
	if !ok || got != TypeEsbuild {
		t.Fatalf("expected Esbuild, got %v, %v", got, ok)
	}
}

func contains(pkgs []string, name string) bool {
	for _, p := range pkgs {
		if p == name {
			return true
		}
	}
	return false
}

func names(content, sourceURL string) []string {
	pkgs := ExtractPackages(content, sourceURL)
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func TestExtractTurbopackPackages(t *testing.T) {
	content := `
		__turbopack_require__("[project]/node_modules/@company/utils/index.js");
		__turbopack_import__("lodash");
	`
	got := names(content, "test.js")
	if !contains(got, "@company/utils") || !contains(got, "lodash") {
		t.Fatalf("expected @company/utils and lodash, got %v", got)
	}
}

func TestExtractEsbuildPackages(t *testing.T) {
	content := `
		__commonJS({ "node_modules/lodash/index.js"(exports) {} });
		__esm({ "node_modules/@company/utils/src/index.js"() {} });
	`
	got := names(content, "test.js")
	if !contains(got, "lodash") || !contains(got, "@company/utils") {
		t.Fatalf("expected lodash and @company/utils, got %v", got)
	}
}

func TestExtractParcelPackages(t *testing.T) {
	content := `
		parcelRequire("@company/sdk");
		$parcel$require("lodash");
	`
	got := names(content, "test.js")
	if !contains(got, "@company/sdk") || !contains(got, "lodash") {
		t.Fatalf("expected @company/sdk and lodash, got %v", got)
	}
}

func TestExtractMinifiedPackages(t *testing.T) {
	content := `
		var a=require("lodash");
		let b=require("@company/utils");
		module.exports=require("express");
	`
	got := names(content, "test.js")
	for _, want := range []string{"lodash", "@company/utils", "express"} {
		if !contains(got, want) {
			t.Errorf("expected %q in %v", want, got)
		}
	}
}

func TestConvertViteName(t *testing.T) {
	if got := convertViteName("@company_utils.js"); got != "@company/utils" {
		t.Errorf("got %q, want @company/utils", got)
	}
	if got := convertViteName("lodash.js"); got != "lodash" {
		t.Errorf("got %q, want lodash", got)
	}
}
