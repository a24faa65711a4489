// Package errs defines the closed set of error kinds the scanner can
// produce, checked with errors.As rather than string matching.
package errs

import "fmt"

// RateLimited means a downstream host (npm registry or a target host)
// rejected a request with a rate-limit signal.
type RateLimited struct {
	Host string
}

func (e *RateLimited) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Host)
}

// ConfigError means a caller-supplied config value was invalid.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config: " + e.Msg }

// SourceMapError means a source map failed validation or parsing.
type SourceMapError struct {
	Msg string
}

func (e *SourceMapError) Error() string { return "source map: " + e.Msg }

// ASTParseError means tree-sitter produced an unusable parse tree.
type ASTParseError struct {
	Msg string
}

func (e *ASTParseError) Error() string { return "ast parse: " + e.Msg }

// CircuitOpen means the connectivity breaker is tripped for a host and the
// caller should not retry.
type CircuitOpen struct {
	Host string
}

func (e *CircuitOpen) Error() string {
	return fmt.Sprintf("circuit open for %s", e.Host)
}
