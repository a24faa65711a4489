package findings

import (
	"strings"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/types"
)

// Dedup collapses packages down to one entry per name, keeping the
// highest-confidence extraction (method priority breaks ties), and
// drops packages that look like extractor artifacts rather than real
// names.
func Dedup(packages []types.Package) []types.Package {
	byName := make(map[string]types.Package, len(packages))

	for _, pkg := range packages {
		if shouldSkip(pkg) {
			continue
		}

		existing, ok := byName[pkg.Name]
		if !ok || pkg.Confidence > existing.Confidence ||
			(pkg.Confidence == existing.Confidence &&
				types.MethodPriority(pkg.ExtractionMethod) > types.MethodPriority(existing.ExtractionMethod)) {
			byName[pkg.Name] = pkg
		}
	}

	out := make([]types.Package, 0, len(byName))
	for _, pkg := range byName {
		out = append(out, pkg)
	}
	return out
}

// shouldSkip applies the name-level false-positive heuristic plus two
// extraction-method-specific rules: a WebpackChunk extraction with no
// hyphen, no slash and fewer than 20 characters, or a Comment extraction
// with no hyphen and no scope, is almost always an artifact rather than
// a package name.
func shouldSkip(pkg types.Package) bool {
	if filter.IsLikelyFalsePositive(pkg.Name) {
		return true
	}

	if pkg.ExtractionMethod == types.MethodWebpackChunk &&
		!strings.Contains(pkg.Name, "-") && !strings.Contains(pkg.Name, "/") && len(pkg.Name) < 20 {
		return true
	}

	if pkg.ExtractionMethod == types.MethodComment &&
		!strings.Contains(pkg.Name, "-") && !strings.HasPrefix(pkg.Name, "@") {
		return true
	}

	return false
}
