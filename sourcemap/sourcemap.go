package sourcemap

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/internal/normalize"
	"github.com/depfused/depfused/types"
)

type rawMap struct {
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
}

var contentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`require\s*\(\s*["']([^"'./][^"']*)["']\s*\)`),
	regexp.MustCompile(`from\s+["']([^"'./][^"']*)["']`),
	regexp.MustCompile(`import\s+["']([^"'./][^"']*)["']`),
}

type pathHit struct {
	name       string
	confidence types.Confidence
	underNM    bool
	underPkgs  bool
}

// Parse extracts Package records from source-map content. It returns
// the workspace-suppressed package set and, separately, the set of
// names classified as workspace-only (present under packages/ but
// never under node_modules/ anywhere in the same map) so callers can
// report them without treating them as registry-exploitable.
func Parse(content, sourceURL string) ([]types.Package, []string, error) {
	var m rawMap
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return nil, nil, fmt.Errorf("sourcemap: parse %s: %w", sourceURL, err)
	}

	var hits []pathHit
	for _, src := range m.Sources {
		if h, ok := classifyPath(src); ok {
			hits = append(hits, h)
		}
	}

	underNM := make(map[string]bool)
	underPkgs := make(map[string]bool)
	for _, h := range hits {
		if h.underNM {
			underNM[h.name] = true
		}
		if h.underPkgs {
			underPkgs[h.name] = true
		}
	}

	var workspaceOnly []string
	workspaceOnlySet := make(map[string]bool)
	for name := range underPkgs {
		if !underNM[name] {
			workspaceOnly = append(workspaceOnly, name)
			workspaceOnlySet[name] = true
		}
	}

	seen := make(map[string]bool)
	var packages []types.Package
	for _, h := range hits {
		if workspaceOnlySet[h.name] {
			continue
		}
		if filter.ShouldFilterPackage(h.name, "", sourceURL) {
			continue
		}
		if seen[h.name] {
			continue
		}
		seen[h.name] = true
		packages = append(packages, types.Package{
			Name:             h.name,
			ExtractionMethod: types.MethodSourceMap,
			SourceURL:        sourceURL,
			Confidence:       h.confidence,
		})
	}

	for _, sc := range m.SourcesContent {
		extractFromSourceContent(sc, sourceURL, workspaceOnlySet, seen, &packages)
	}

	return packages, workspaceOnly, nil
}

// classifyPath strips a webpack:// prefix from a sources[] entry and
// classifies it into a node_modules reference (High confidence),
// a packages/ (monorepo workspace) reference (Low confidence), or a
// direct @scope/~-rooted reference (Medium confidence).
func classifyPath(path string) (pathHit, bool) {
	p := strings.TrimPrefix(strings.TrimPrefix(path, "webpack:///"), "webpack://")

	if idx := strings.Index(p, "node_modules/"); idx >= 0 {
		after := p[idx+len("node_modules/"):]
		if name, ok := extractPathSegment(after); ok {
			return pathHit{name: name, confidence: types.ConfidenceHigh, underNM: true}, true
		}
		return pathHit{}, false
	}

	if idx := strings.Index(p, "packages/"); idx >= 0 {
		after := p[idx+len("packages/"):]
		if name, ok := extractPathSegment(after); ok {
			return pathHit{name: name, confidence: types.ConfidenceLow, underPkgs: true}, true
		}
		return pathHit{}, false
	}

	if strings.HasPrefix(p, "@") || strings.HasPrefix(p, "~/") {
		clean := strings.TrimPrefix(p, "~/")
		if name, ok := extractPathSegment(clean); ok {
			return pathHit{name: name, confidence: types.ConfidenceMedium}, true
		}
	}

	return pathHit{}, false
}

func extractPathSegment(segment string) (string, bool) {
	segment = strings.TrimPrefix(segment, "/")
	if segment == "" {
		return "", false
	}
	if strings.HasPrefix(segment, "@") {
		parts := strings.SplitN(segment, "/", 3)
		if len(parts) < 2 {
			return "", false
		}
		return normalize.PackageName(parts[0] + "/" + parts[1])
	}
	first := strings.SplitN(segment, "/", 2)[0]
	return normalize.PackageName(first)
}

func extractFromSourceContent(content, sourceURL string, workspaceOnly, seen map[string]bool, out *[]types.Package) {
	for _, re := range contentPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			matchStart, nameStart, nameEnd := m[0], m[2], m[3]
			lineStart := strings.LastIndexByte(content[:matchStart], '\n') + 1
			linePrefix := strings.TrimSpace(content[lineStart:matchStart])
			if strings.HasPrefix(linePrefix, "//") || strings.HasPrefix(linePrefix, "*") {
				continue
			}

			raw := content[nameStart:nameEnd]
			name, ok := normalize.PackageName(raw)
			if !ok {
				continue
			}
			if workspaceOnly[name] || seen[name] {
				continue
			}
			if filter.ShouldFilterPackage(name, "", sourceURL) {
				continue
			}
			seen[name] = true
			*out = append(*out, types.Package{
				Name:             name,
				ExtractionMethod: types.MethodSourceMap,
				SourceURL:        sourceURL,
				Confidence:       types.ConfidenceLow,
			})
		}
	}
}
