// Package ast extracts package references from JavaScript source by
// walking its syntax tree: static import/export-from specifiers,
// require(...) calls, and dynamic import(...) expressions. It falls
// back to regex scans of comments and known error-message strings for
// signal the syntax tree doesn't carry.
package ast

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/depfused/depfused/internal/normalize"
	"github.com/depfused/depfused/types"
)

// Parser walks a JavaScript syntax tree to collect package references.
type Parser struct {
	// IncludeLowConfidence enables the error-message string scan, which
	// is noisy enough to skip by default.
	IncludeLowConfidence bool
}

// New returns a Parser.
func New(includeLowConfidence bool) *Parser {
	return &Parser{IncludeLowConfidence: includeLowConfidence}
}

// Parse extracts package references from content. Parse errors in the
// source (common in minified or truncated bundles) are not fatal; the
// walker simply extracts what it can from the partial tree.
func (p *Parser) Parse(content, sourceURL string) []types.Package {
	seen := make(map[string]types.Package)
	add := func(name string, method types.ExtractionMethod, confidence types.Confidence) {
		if confidence == types.ConfidenceLow && !p.IncludeLowConfidence {
			return
		}
		normalized, ok := normalize.PackageName(name)
		if !ok {
			return
		}
		existing, ok := seen[normalized]
		if !ok || confidence > existing.Confidence {
			seen[normalized] = types.Package{
				Name:             normalized,
				ExtractionMethod: method,
				SourceURL:        sourceURL,
				Confidence:       confidence,
			}
		}
	}

	src := []byte(content)
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	if tree, err := parser.ParseCtx(context.Background(), nil, src); err == nil {
		walk(tree.RootNode(), src, add)
		tree.Close()
	}

	for name := range extractFromComments(content) {
		add(name, types.MethodComment, types.ConfidenceMedium)
	}
	for name := range extractFromStrings(content, p.IncludeLowConfidence) {
		add(name, types.MethodErrorMessage, types.ConfidenceLow)
	}

	out := make([]types.Package, 0, len(seen))
	for _, pkg := range seen {
		out = append(out, pkg)
	}
	return out
}

type adder func(name string, method types.ExtractionMethod, confidence types.Confidence)

// walk recurses the tree looking for import/export-from declarations,
// require(...) calls, and dynamic import(...) expressions.
func walk(node *sitter.Node, src []byte, add adder) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "import_statement":
		if source := node.ChildByFieldName("source"); source != nil {
			add(stringLiteralValue(source, src), types.MethodImport, types.ConfidenceHigh)
		}
	case "export_statement":
		if source := node.ChildByFieldName("source"); source != nil {
			add(stringLiteralValue(source, src), types.MethodImport, types.ConfidenceHigh)
		}
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil {
			args := node.ChildByFieldName("arguments")
			switch fn.Type() {
			case "identifier":
				if fn.Content(src) == "require" {
					if arg := firstStringArg(args, src); arg != "" {
						add(arg, types.MethodRequire, types.ConfidenceHigh)
					}
				}
			case "import":
				if arg := firstStringArg(args, src); arg != "" {
					add(arg, types.MethodDynamicImport, types.ConfidenceHigh)
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), src, add)
	}
}

func firstStringArg(args *sitter.Node, src []byte) string {
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child.Type() == "string" {
			return stringLiteralValue(child, src)
		}
	}
	return ""
}

func stringLiteralValue(node *sitter.Node, src []byte) string {
	return strings.Trim(node.Content(src), `'"`+"`")
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	scopedPkgInCommentRe = regexp.MustCompile(`@([\w-]+)/([\w.-]+)`)

	errorMessagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Cannot find module ['"](@[\w-]+/[\w.-]+|[\w.-]+)['"]`),
		regexp.MustCompile(`Error in ['"]?(@[\w-]+/[\w.-]+)['"]?`),
		regexp.MustCompile(`Module not found.*['"](@[\w-]+/[\w.-]+)['"]`),
	}
)

// extractFromComments looks for "@scope/name"-shaped text inside block
// and line comments only, so that import statements (which are scanned
// by the AST walk already) can't be double counted via a loose scan of
// the whole file.
func extractFromComments(content string) map[string]struct{} {
	var commentText strings.Builder
	for _, m := range blockCommentRe.FindAllString(content, -1) {
		commentText.WriteString(m)
		commentText.WriteByte('\n')
	}
	for _, m := range lineCommentRe.FindAllString(content, -1) {
		commentText.WriteString(m)
		commentText.WriteByte('\n')
	}

	names := make(map[string]struct{})
	for _, m := range scopedPkgInCommentRe.FindAllStringSubmatch(commentText.String(), -1) {
		names["@"+m[1]+"/"+m[2]] = struct{}{}
	}
	return names
}

// extractFromStrings looks for package names embedded in common bundler
// error-message strings, e.g. "Cannot find module '@scope/pkg'".
func extractFromStrings(content string, includeLowConfidence bool) map[string]struct{} {
	names := make(map[string]struct{})
	if !includeLowConfidence {
		return names
	}
	for _, re := range errorMessagePatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			names[m[1]] = struct{}{}
		}
	}
	return names
}
