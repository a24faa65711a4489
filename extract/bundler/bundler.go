// Package bundler extracts package references from the output of
// non-webpack bundlers: Vite/Rollup, Parcel, Turbopack, esbuild, and
// SWC, plus a grab-bag of generic minified-require call shapes that
// show up regardless of which bundler produced them.
package bundler

import (
	"regexp"
	"strings"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/internal/normalize"
	"github.com/depfused/depfused/types"
)

// Type identifies which bundler produced a piece of content.
type Type string

const (
	TypeVite      Type = "vite"
	TypeRollup    Type = "rollup"
	TypeParcel    Type = "parcel"
	TypeTurbopack Type = "turbopack"
	TypeEsbuild   Type = "esbuild"
	TypeSwc       Type = "swc"
)

// Detect identifies which bundler produced content, or ("", false) if
// none of the sniff strings match.
func Detect(content string) (Type, bool) {
	switch {
	case strings.Contains(content, "__turbopack_") || strings.Contains(content, "[project]/node_modules"):
		return TypeTurbopack, true
	case strings.Contains(content, ".vite/deps") || strings.Contains(content, "/@id/__x00__"):
		return TypeVite, true
	case strings.Contains(content, "parcelRequire") || strings.Contains(content, "$parcel$"):
		return TypeParcel, true
	case strings.Contains(content, "__commonJS") || strings.Contains(content, "__toESM") || strings.Contains(content, "__require"):
		return TypeEsbuild, true
	case strings.Contains(content, "_interop_require_") || strings.Contains(content, "@swc/helpers"):
		return TypeSwc, true
	case strings.Contains(content, "/*#__PURE__*/") && strings.Contains(content, "require"):
		return TypeRollup, true
	default:
		return "", false
	}
}

var vitePatterns = []*regexp.Regexp{
	regexp.MustCompile(`from\s*["']/node_modules/\.vite/deps/([^"'?]+)`),
	regexp.MustCompile(`/@id/__x00__(@[\w-]+/[\w.-]+|[\w.-]+)`),
	regexp.MustCompile(`chunk[_-](@?[\w-]+(?:/[\w.-]+)?)[_-][a-f0-9]+`),
	regexp.MustCompile(`vendor[._-](@?[\w-]+(?:/[\w.-]+)?)`),
	regexp.MustCompile(`__vite__import(?:Analysis)?[_-](\d+)[_-](@?[\w-]+)`),
	regexp.MustCompile(`/\*#__PURE__\*/\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`/node_modules/\.vite/deps/(@[\w-]+[_-][\w.-]+|[\w.-]+)\.js`),
}

var parcelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`["']node_modules/([^"']+)["']\s*:\s*\[?\s*function`),
	regexp.MustCompile(`parcelRequire\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`\$parcel\$require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`/\*\s*(@[\w-]+/[\w.-]+)\s*\*/`),
	regexp.MustCompile(`\$[a-f0-9]+\$exports.*node_modules/(@[\w-]+/[\w.-]+|[\w.-]+)`),
	regexp.MustCompile(`parcel[_-]?require\s*\(\s*["'](@?[\w-]+(?:/[\w.-]+)?)["']\s*\)`),
}

var turbopackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[project\]/node_modules/(@[\w-]+/[\w.-]+|[\w.-]+)`),
	regexp.MustCompile(`__turbopack_require__\s*\(\s*["']\[project\]/node_modules/([^"'\]]+)`),
	regexp.MustCompile(`__turbopack_import__\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`__turbopack_external_require__\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`turbopack[_-]?binding\s*\[\s*["']([^"']+)["']\s*\]`),
	regexp.MustCompile(`__next_[a-z]+.*["']node_modules/(@[\w-]+/[\w.-]+|[\w.-]+)`),
	regexp.MustCompile(`turbopack://\[project\]/node_modules/(@[\w-]+/[\w.-]+|[\w.-]+)`),
}

var esbuildPatterns = []*regexp.Regexp{
	regexp.MustCompile(`__require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`__commonJS\s*\(\s*\{\s*["']node_modules/([^"']+)["']`),
	regexp.MustCompile(`__esm\s*\(\s*\{\s*["']node_modules/([^"']+)["']`),
	regexp.MustCompile(`__export\s*\(\s*(\w+)_exports`),
	regexp.MustCompile(`__toESM\s*\(\s*require_([a-zA-Z0-9_]+)\s*\(\s*\)\s*\)`),
	regexp.MustCompile(`var\s+init_([a-zA-Z0-9_]+)\s*=\s*__esm`),
	regexp.MustCompile(`//\s*node_modules/(@[\w-]+/[\w.-]+|[\w.-]+)`),
	regexp.MustCompile(`chunk-[A-Z0-9]+\.js.*["'](@[\w-]+/[\w.-]+|[\w.-]+)["']`),
}

var swcPatterns = []*regexp.Regexp{
	regexp.MustCompile(`_interop_require_\w+\s*\(\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`_export_star\s*\(\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`from\s*["'](@swc/[\w.-]+)["']`),
}

var minifiedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:var|let|const)\s+[a-z]\s*=\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`import\s+[a-z]\s+from\s*["']([^"']+)["']`),
	regexp.MustCompile(`\w\s*\[\s*["']require["']\s*\]\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`Object\.assign\s*\([^,]+,\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`\{\s*\.\.\.require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`module\.exports\s*=\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`\?\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`&&\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`\[\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`\(\s*\d+\s*,\s*require\s*\(\s*["']([^"']+)["']\s*\)`),
}

// ExtractPackages runs every bundler-family pattern over content and
// returns the deduplicated, filtered set of packages found.
func ExtractPackages(content, sourceURL string) []types.Package {
	seen := make(map[string]types.Package)

	add := func(name string, method types.ExtractionMethod, confidence types.Confidence) {
		if existing, ok := seen[name]; !ok || confidence > existing.Confidence {
			seen[name] = types.Package{
				Name:             name,
				ExtractionMethod: method,
				SourceURL:        sourceURL,
				Confidence:       confidence,
			}
		}
	}

	for _, p := range vitePatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if normalized, ok := normalize.PackageName(convertViteName(m[1])); ok {
				add(normalized, types.MethodWebpackChunk, types.ConfidenceHigh)
			}
		}
	}

	for _, p := range parcelPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if normalized, ok := packageFromPath(m[1]); ok {
				add(normalized, types.MethodWebpackChunk, types.ConfidenceHigh)
			}
		}
	}

	for _, p := range turbopackPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if normalized, ok := packageFromPath(m[1]); ok {
				add(normalized, types.MethodWebpackChunk, types.ConfidenceHigh)
			}
		}
	}

	for _, p := range esbuildPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			raw := m[1]
			name := raw
			if strings.Contains(m[0], "require_"+raw) || strings.Contains(m[0], "init_"+raw) {
				name = convertEsbuildName(raw)
			}
			if normalized, ok := packageFromPath(name); ok {
				add(normalized, types.MethodWebpackChunk, types.ConfidenceHigh)
			}
		}
	}

	for _, p := range swcPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if normalized, ok := normalize.PackageName(m[1]); ok {
				add(normalized, types.MethodWebpackChunk, types.ConfidenceHigh)
			}
		}
	}

	// Minified-code shapes are bundler-agnostic and noisier, hence
	// Medium confidence and the Require extraction method (matching
	// what they actually are syntactically).
	for _, p := range minifiedPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			if normalized, ok := normalize.PackageName(m[1]); ok {
				add(normalized, types.MethodRequire, types.ConfidenceMedium)
			}
		}
	}

	out := make([]types.Package, 0, len(seen))
	for _, pkg := range seen {
		if filter.ShouldFilterPackage(pkg.Name, content, sourceURL) {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

// convertViteName undoes Vite's optimized-deps naming: strips a
// trailing ".js" and reconstitutes "@scope_pkg" or "@scope/pkg" forms
// back into "@scope/pkg".
func convertViteName(name string) string {
	result := strings.TrimSuffix(name, ".js")

	if strings.HasPrefix(result, "@") && !strings.Contains(result, "/") {
		rest := result[1:]
		if idx := strings.Index(rest, "_"); idx >= 0 {
			scope := result[:idx+1]
			pkg := rest[idx+1:]
			result = scope + "/" + pkg
		}
	}

	if !strings.HasPrefix(result, "@") && strings.Contains(result, "_") {
		idx := strings.Index(result, "_")
		potentialScope := result[:idx]
		for _, s := range []string{"company", "internal", "private", "org", "team"} {
			if strings.Contains(potentialScope, s) {
				result = "@" + potentialScope + "/" + result[idx+1:]
				break
			}
		}
	}

	return result
}

// convertEsbuildName undoes esbuild's require_x/init_x naming:
// leading underscore becomes "@", and the first remaining underscore
// becomes the scope/name separator.
func convertEsbuildName(name string) string {
	result := name
	if strings.HasPrefix(result, "_") {
		result = "@" + result[1:]
	}
	if strings.HasPrefix(result, "@") {
		rest := result[1:]
		if idx := strings.Index(rest, "_"); idx >= 0 {
			before := result[:idx+1]
			after := strings.ReplaceAll(rest[idx+1:], "_", "-")
			result = before + "/" + after
		}
	}
	return result
}

// packageFromPath extracts a package name from a module path like
// "./@scope/pkg/index.js" or "./lodash/index.js".
func packageFromPath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "./")

	if strings.HasPrefix(path, "@") {
		parts := strings.SplitN(path, "/", 3)
		if len(parts) < 2 {
			return "", false
		}
		return normalize.PackageName(parts[0] + "/" + parts[1])
	}

	parts := strings.SplitN(path, "/", 2)
	return normalize.PackageName(parts[0])
}
