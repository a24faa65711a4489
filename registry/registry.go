// Package registry checks candidate package names against the public
// npm registry to determine whether they're unclaimed (and so
// exploitable via dependency confusion), already published, or owned
// by a claimed scope.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/depfused/depfused/types"
)

const defaultRegistryURL = "https://registry.npmjs.org"

type npmPackageInfo struct {
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
}

type npmSearchResponse struct {
	Objects []struct {
		Package struct {
			Name string `json:"name"`
		} `json:"package"`
	} `json:"objects"`
}

// Option configures a Checker.
type Option func(*Checker)

// WithRegistryURL overrides the registry base URL (tests, private mirrors).
func WithRegistryURL(u string) Option { return func(c *Checker) { c.registryURL = u } }

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Checker) { c.logger = l } }

// Checker verifies packages against the npm registry, with a TTL
// cache and a global rate limiter shared across all checks.
type Checker struct {
	client      *http.Client
	cache       *cache
	limiter     *rate.Limiter
	registryURL string
	logger      *slog.Logger
}

// New builds a Checker. cacheTTL defaults to 1 hour if zero.
// ratePerSecond defaults to 5/s if zero.
func New(timeout time.Duration, ratePerSecond float64, cacheTTL time.Duration, opts ...Option) *Checker {
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	if ratePerSecond == 0 {
		ratePerSecond = 5
	}
	c := &Checker{
		client:      &http.Client{Timeout: timeout},
		cache:       newCache(cacheTTL),
		limiter:     rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		registryURL: defaultRegistryURL,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check verifies pkg against the registry, using the cache when possible.
func (c *Checker) Check(ctx context.Context, pkg types.Package) types.NpmCheckResult {
	if cached, ok := c.cache.get(pkg.Name); ok {
		return cached
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return types.NpmCheckResult{Kind: types.NpmError, Name: pkg.Name, Error: err.Error()}
	}

	var result types.NpmCheckResult
	if strings.HasPrefix(pkg.Name, "@") {
		result = c.checkScoped(ctx, pkg.Name)
	} else {
		result = c.checkRegular(ctx, pkg.Name)
	}

	c.cache.set(pkg.Name, result)
	return result
}

func (c *Checker) checkRegular(ctx context.Context, name string) types.NpmCheckResult {
	info, status, err := c.getPackageInfo(ctx, name)
	if err != nil {
		return types.NpmCheckResult{Kind: types.NpmError, Name: name, Error: err.Error()}
	}
	switch {
	case status >= 200 && status < 300:
		return types.NpmCheckResult{Kind: types.NpmExists, Name: name, LatestVersion: info.DistTags.Latest}
	case status == http.StatusNotFound:
		return types.NpmCheckResult{Kind: types.NpmNotFound, Name: name}
	default:
		return types.NpmCheckResult{Kind: types.NpmError, Name: name, Error: fmt.Sprintf("HTTP %d", status)}
	}
}

func (c *Checker) checkScoped(ctx context.Context, name string) types.NpmCheckResult {
	info, status, err := c.getPackageInfo(ctx, name)
	if err != nil {
		return types.NpmCheckResult{Kind: types.NpmError, Name: name, Error: err.Error()}
	}
	switch {
	case status >= 200 && status < 300:
		return types.NpmCheckResult{Kind: types.NpmExists, Name: name, LatestVersion: info.DistTags.Latest}
	case status == http.StatusNotFound:
		return c.checkScopeOwnership(ctx, name)
	default:
		return types.NpmCheckResult{Kind: types.NpmError, Name: name, Error: fmt.Sprintf("HTTP %d", status)}
	}
}

func (c *Checker) getPackageInfo(ctx context.Context, name string) (npmPackageInfo, int, error) {
	body, status, err := c.get(ctx, c.registryURL+"/"+url.PathEscape(name))
	if err != nil {
		return npmPackageInfo{}, 0, err
	}
	var info npmPackageInfo
	if status >= 200 && status < 300 {
		_ = json.Unmarshal(body, &info)
	}
	return info, status, nil
}

// checkScopeOwnership implements the three-step cascade: is there a
// claimed user with this scope name, a claimed org, or any published
// package under this scope? Only if all three fail is the scope
// reported unclaimed (and therefore exploitable).
func (c *Checker) checkScopeOwnership(ctx context.Context, name string) types.NpmCheckResult {
	scope, _, _ := strings.Cut(name, "/")
	if scope == "" || !strings.HasPrefix(scope, "@") {
		return types.NpmCheckResult{Kind: types.NpmNotFound, Name: name}
	}
	scopeName := scope[1:]

	userURL := c.registryURL + "/-/user/org.couchdb.user:" + url.PathEscape(scopeName)
	if body, status, err := c.get(ctx, userURL); err == nil && status >= 200 && status < 300 {
		var v map[string]any
		if json.Unmarshal(body, &v) == nil {
			_, hasOK := v["ok"]
			_, hasName := v["name"]
			_, hasID := v["_id"]
			okTrue, _ := v["ok"].(bool)
			if (hasOK && okTrue) || hasName || hasID {
				c.logger.Debug("registry: scope claimed by user", "scope", scopeName)
				return types.NpmCheckResult{Kind: types.NpmNotFound, Name: name}
			}
		}
	}

	orgURL := c.registryURL + "/-/org/" + url.PathEscape(scopeName) + "/package"
	if body, status, err := c.get(ctx, orgURL); err == nil && status >= 200 && status < 300 {
		var v map[string]any
		if json.Unmarshal(body, &v) == nil {
			if _, hasError := v["error"]; !hasError {
				c.logger.Debug("registry: scope claimed by org", "scope", scopeName)
				return types.NpmCheckResult{Kind: types.NpmNotFound, Name: name}
			}
		}
	}

	searchURL := c.registryURL + "/-/v1/search?text=" + url.QueryEscape(scope) + "&size=5"
	scopePrefix := scope + "/"
	if body, status, err := c.get(ctx, searchURL); err == nil && status >= 200 && status < 300 {
		var resp npmSearchResponse
		if json.Unmarshal(body, &resp) == nil {
			for _, obj := range resp.Objects {
				if strings.HasPrefix(obj.Package.Name, scopePrefix) {
					c.logger.Debug("registry: scope claimed by packages", "scope", scopeName)
					return types.NpmCheckResult{Kind: types.NpmNotFound, Name: name}
				}
			}
		}
	}

	c.logger.Debug("registry: scope unclaimed", "scope", scope)
	return types.NpmCheckResult{Kind: types.NpmScopeNotClaimed, Name: name, Scope: scope}
}

func (c *Checker) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "depfused/0.1")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
