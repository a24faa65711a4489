// Package findings decides, from a Package and its npm registry check
// result, whether a Finding should be reported at all and at what
// severity.
package findings

import (
	"strings"

	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/types"
)

// ShouldReport is the exploitability predicate: a ScopeNotClaimed
// result is always reportable (the attacker can register the scope
// and publish); a NotFound result is only reportable when the name is
// unscoped (a scoped NotFound means the scope itself is claimed, so
// publishing under it is blocked); Exists and Error are always
// reported for visibility.
func ShouldReport(result types.NpmCheckResult) bool {
	switch result.Kind {
	case types.NpmScopeNotClaimed:
		return true
	case types.NpmNotFound:
		return !strings.HasPrefix(result.Name, "@")
	case types.NpmExists, types.NpmError:
		return true
	default:
		return false
	}
}

// Build constructs a Finding from pkg and its registry result,
// assigning severity and advisory notes.
func Build(pkg types.Package, result types.NpmCheckResult) types.Finding {
	severity := severityFor(pkg, result)

	var notes []string
	if filter.IsLikelyInternal(pkg.Name) {
		notes = append(notes, "package name suggests internal/private usage")
	}
	if pkg.Confidence == types.ConfidenceLow {
		notes = append(notes, "low confidence extraction - verify manually")
	}

	return types.Finding{
		Package:   pkg,
		NpmResult: result,
		Severity:  severity,
		Notes:     notes,
	}
}

func severityFor(pkg types.Package, result types.NpmCheckResult) types.Severity {
	switch result.Kind {
	case types.NpmScopeNotClaimed:
		return types.SeverityCritical
	case types.NpmNotFound:
		if filter.IsLikelyInternal(pkg.Name) {
			return types.SeverityHigh
		}
		return types.SeverityMedium
	case types.NpmExists:
		return types.SeverityInfo
	default:
		return types.SeverityLow
	}
}
