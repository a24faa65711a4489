// Package webpack extracts package references from webpack-bundled
// JavaScript: module-id comments, module-exports comments, the
// __webpack_require__.m module map, and vendor-chunk split names. It
// also recognizes Next.js build manifests and can generate their URLs
// for a given build ID.
package webpack

import (
	"regexp"
	"strings"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/internal/normalize"
	"github.com/depfused/depfused/types"
)

var bundleSniffPatterns = []*regexp.Regexp{
	regexp.MustCompile(`window\["webpackJsonp"\]|webpackJsonp`),
	regexp.MustCompile(`__webpack_require__`),
	regexp.MustCompile(`__webpack_chunk_load__`),
	regexp.MustCompile(`self\["webpackChunk`),
}

// IsBundle reports whether content looks like a webpack runtime/bundle.
func IsBundle(content string) bool {
	for _, p := range bundleSniffPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

var (
	moduleIDCommentRe = regexp.MustCompile(`/\*\s*\d+\s*\*/\s*["']([^"']+)["']`)
	moduleExportsRe   = regexp.MustCompile(`/\*\*\*/\s*["'](@?[\w-]+(?:/[\w.-]+)*)["']\s*:`)
	// Webpack emits `: (function` for module map entries, not just `:
	// function`, so the paren is optional.
	requireMapRe = regexp.MustCompile(`["']((?:\./)?node_modules/[^"']+)["']\s*:\s*\(?function`)
)

var vendorChunkRe = regexp.MustCompile(`vendors?[~-](@?[\w-]+(?:/[\w.-]+)*)`)

var nextjsBuildIDRe = regexp.MustCompile(`_next/static/([a-zA-Z0-9_-]+)/`)

// ExtractPackages runs all four webpack-specific regex families over
// content and returns the deduplicated set of packages they find.
func ExtractPackages(content, sourceURL string) []types.Package {
	seen := make(map[string]types.Package)
	add := func(name string, confidence types.Confidence) {
		if filter.ShouldFilterPackage(name, content, sourceURL) {
			return
		}
		if existing, ok := seen[name]; !ok || confidence > existing.Confidence {
			seen[name] = types.Package{
				Name:             name,
				ExtractionMethod: types.MethodWebpackChunk,
				SourceURL:        sourceURL,
				Confidence:       confidence,
			}
		}
	}

	for _, m := range moduleIDCommentRe.FindAllStringSubmatch(content, -1) {
		if pkg, ok := packageFromWebpackPath(m[1]); ok {
			add(pkg, types.ConfidenceHigh)
		}
	}

	for _, m := range moduleExportsRe.FindAllStringSubmatch(content, -1) {
		if normalized, ok := normalize.PackageName(m[1]); ok {
			add(normalized, types.ConfidenceHigh)
		}
	}

	for _, m := range requireMapRe.FindAllStringSubmatch(content, -1) {
		if pkg, ok := packageFromWebpackPath(m[1]); ok {
			add(pkg, types.ConfidenceHigh)
		}
	}

	// Vendor chunk names have the highest false-positive rate of the
	// four patterns (CSS classes, component names), hence Medium.
	for _, m := range vendorChunkRe.FindAllStringSubmatch(content, -1) {
		if normalized, ok := normalize.PackageName(m[1]); ok {
			add(normalized, types.ConfidenceMedium)
		}
	}

	out := make([]types.Package, 0, len(seen))
	for _, pkg := range seen {
		out = append(out, pkg)
	}
	return out
}

// packageFromWebpackPath pulls a package name out of a webpack module
// path like "./node_modules/@scope/name/src/index.js".
func packageFromWebpackPath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "./")

	idx := strings.Index(path, "node_modules/")
	if idx < 0 {
		return "", false
	}
	afterNM := path[idx+len("node_modules/"):]

	if strings.HasPrefix(afterNM, "@") {
		parts := strings.SplitN(afterNM, "/", 3)
		if len(parts) < 2 {
			return "", false
		}
		return normalize.PackageName(parts[0] + "/" + parts[1])
	}

	parts := strings.SplitN(afterNM, "/", 2)
	return normalize.PackageName(parts[0])
}

// ExtractNextjsBuildID pulls the build ID out of a "_next/static/<id>/"
// path reference, if present.
func ExtractNextjsBuildID(content string) (string, bool) {
	m := nextjsBuildIDRe.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NextjsManifestURLs generates the well-known manifest/chunk URLs for a
// Next.js build, given the site's origin (scheme://host, no trailing
// slash) and a discovered build ID.
func NextjsManifestURLs(origin, buildID string) []string {
	return []string{
		origin + "/_next/static/" + buildID + "/_buildManifest.js",
		origin + "/_next/static/" + buildID + "/_ssgManifest.js",
		origin + "/_next/static/chunks/webpack.js",
		origin + "/_next/static/chunks/main.js",
		origin + "/_next/static/chunks/framework.js",
		origin + "/_next/static/chunks/pages/_app.js",
	}
}
