// Package orchestrate is the top-level scan driver: it groups target URLs
// by origin so a browser is reused across same-origin targets, drives the
// capture -> lazy-chunk discovery -> extraction -> filter/dedup ->
// registry-check -> findings pipeline for each target, and returns one
// ScanResult per input URL in input order.
package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/depfused/depfused/capture"
	"github.com/depfused/depfused/extract/ast"
	"github.com/depfused/depfused/extract/bundler"
	"github.com/depfused/depfused/extract/deobfuscate"
	"github.com/depfused/depfused/extract/webpack"
	"github.com/depfused/depfused/fetch"
	"github.com/depfused/depfused/filter"
	"github.com/depfused/depfused/findings"
	"github.com/depfused/depfused/internal/trace"
	"github.com/depfused/depfused/lazychunk"
	"github.com/depfused/depfused/registry"
	"github.com/depfused/depfused/sourcemap"
	"github.com/depfused/depfused/types"
)

const (
	maxFileBytes        = 5 << 20 // per-file extraction skip threshold
	maxLazyChunkRounds  = 3
	registryConcurrency = 50
	defaultFetchRate    = 10.0
	defaultRegistryRate = 5.0
)

// Config controls the full pipeline: browser capture, HTTP fetch/probe,
// registry checks, and result filtering.
type Config struct {
	Capture              capture.Config
	HTTP                 types.HTTPConfig
	RegistryURL          string
	RegistryRatePerSec   float64
	RegistryCacheTTL     time.Duration
	FetchRatePerSec      float64
	Parallel             int // bounded group parallelism; default 1
	MinConfidence        types.Confidence
	ScopedOnly           bool
	SkipNpmCheck         bool
	IncludeLowConfidence bool
	Logger               *slog.Logger
}

func (c Config) defaults() Config {
	if c.Parallel <= 0 {
		c.Parallel = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP = types.DefaultHTTPConfig()
	}
	if c.RegistryCacheTTL == 0 {
		c.RegistryCacheTTL = time.Hour
	}
	return c
}

// Orchestrator wires every pipeline stage together and drives scans.
type Orchestrator struct {
	cfg      Config
	capturer *capture.BrowserCapture
	fetcher  *fetch.JsFetcher
	prober   *sourcemap.Prober
	reg      *registry.Checker
	astp     *ast.Parser
	trace    *trace.Store
	logger   *slog.Logger
}

// Option configures an Orchestrator after its defaults are applied.
type Option func(*Orchestrator)

// WithTrace attaches an optional audit-trail store: every ScanResult
// produced is recorded there in addition to being returned to the caller.
func WithTrace(s *trace.Store) Option {
	return func(o *Orchestrator) { o.trace = s }
}

// New builds an Orchestrator from cfg.
func New(cfg Config, opts ...Option) *Orchestrator {
	cfg = cfg.defaults()
	if cfg.Capture.Logger == nil {
		cfg.Capture.Logger = cfg.Logger
	}

	regOpts := []registry.Option{registry.WithLogger(cfg.Logger)}
	if cfg.RegistryURL != "" {
		regOpts = append(regOpts, registry.WithRegistryURL(cfg.RegistryURL))
	}

	fetchRate := cfg.FetchRatePerSec
	if fetchRate == 0 {
		fetchRate = defaultFetchRate
	}
	registryRate := cfg.RegistryRatePerSec
	if registryRate == 0 {
		registryRate = defaultRegistryRate
	}

	o := &Orchestrator{
		cfg:      cfg,
		capturer: capture.New(cfg.Capture),
		fetcher:  fetch.New(cfg.HTTP, fetch.WithLogger(cfg.Logger), fetch.WithRateLimit(fetchRate)),
		prober:   sourcemap.NewProber(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.Logger),
		reg:      registry.New(cfg.HTTP.Timeout, registryRate, cfg.RegistryCacheTTL, regOpts...),
		astp:     ast.New(cfg.IncludeLowConfidence),
		logger:   cfg.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScanMultiple scans every target in urls. If there's exactly one target,
// it's scanned directly without the grouping machinery; otherwise targets
// are grouped by origin (scheme, host, port) and each group runs against
// one reused browser instance, with groups processed at bounded
// parallelism (Config.Parallel). The returned slice has exactly one entry
// per input URL, in input order, regardless of completion order.
func (o *Orchestrator) ScanMultiple(ctx context.Context, urls []string) []types.ScanResult {
	if len(urls) == 1 {
		return []types.ScanResult{o.Scan(ctx, urls[0])}
	}
	if len(urls) == 0 {
		return nil
	}

	positions := make(map[string][]int, len(urls))
	for i, u := range urls {
		positions[u] = append(positions[u], i)
	}

	groups := groupByHost(urls)
	results := make([]types.ScanResult, len(urls))

	sem := make(chan struct{}, o.cfg.Parallel)
	var wg sync.WaitGroup
	for _, g := range groups {
		g := g
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			perURL := o.scanGroup(ctx, g.urls)
			for u, res := range perURL {
				for _, idx := range positions[u] {
					results[idx] = res
				}
			}
		}()
	}
	wg.Wait()

	return results
}

// Scan runs the full pipeline against a single URL with its own
// dedicated browser instance.
func (o *Orchestrator) Scan(ctx context.Context, targetURL string) types.ScanResult {
	start := time.Now()
	files, err := o.capturer.Capture(ctx, targetURL)

	var errs []string
	if err != nil {
		errs = append(errs, fmt.Sprintf("capture: %v", err))
	}

	res := o.processCapturedJS(ctx, targetURL, files, errs)
	res.Duration = time.Since(start)
	o.recordTrace(ctx, res)
	return res
}

// scanGroup captures every URL in a same-origin group against one shared
// browser, then runs each one through the rest of the pipeline.
func (o *Orchestrator) scanGroup(ctx context.Context, urls []string) map[string]types.ScanResult {
	groupStart := time.Now()
	captured := o.capturer.CaptureGroup(ctx, urls)
	captureElapsed := time.Since(groupStart)

	out := make(map[string]types.ScanResult, len(urls))
	for _, u := range urls {
		files := captured[u]

		var errs []string
		if files == nil {
			errs = append(errs, "capture: no js files captured (navigation failure or browser unavailable)")
		}

		urlStart := time.Now()
		res := o.processCapturedJS(ctx, u, files, errs)
		res.Duration = captureElapsed + time.Since(urlStart)
		out[u] = res
		o.recordTrace(ctx, res)
	}
	return out
}

func (o *Orchestrator) recordTrace(ctx context.Context, res types.ScanResult) {
	if o.trace != nil {
		o.trace.Record(ctx, o.logger, res)
	}
}

// processCapturedJS drives the per-target pipeline stages that don't
// touch the browser: lazy-chunk discovery, per-file extraction, the
// master filter and dedup pass, and registry verification.
func (o *Orchestrator) processCapturedJS(ctx context.Context, target string, files []types.JsFile, errs []string) types.ScanResult {
	fileSet := newFileSet(files)
	o.discoverLazyChunks(ctx, fileSet)

	allFiles := fileSet.list()
	rawPackages, workspaceOnlyCount := o.extractAll(ctx, allFiles)
	if workspaceOnlyCount > 0 {
		o.logger.Debug("orchestrate: suppressed workspace-only source-map names", "target", target, "count", workspaceOnlyCount)
	}

	deduped := findings.Dedup(rawPackages)

	var candidates []types.Package
	for _, pkg := range deduped {
		if pkg.Confidence < o.cfg.MinConfidence {
			continue
		}
		if o.cfg.ScopedOnly && !strings.HasPrefix(pkg.Name, "@") {
			continue
		}
		candidates = append(candidates, pkg)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	var findingsOut []types.Finding
	if !o.cfg.SkipNpmCheck {
		findingsOut = o.checkRegistry(ctx, candidates)
	}
	sort.Slice(findingsOut, func(i, j int) bool { return findingsOut[i].Package.Name < findingsOut[j].Package.Name })

	return types.ScanResult{
		Target:        target,
		JsFilesCount:  len(allFiles),
		PackagesFound: len(candidates),
		Findings:      findingsOut,
		Errors:        errs,
	}
}

// discoverLazyChunks iterates lazychunk.Discover over newly added files,
// fetching and adding anything it finds that isn't already known, up to
// maxLazyChunkRounds rounds (each round scans only files added by the
// previous one).
func (o *Orchestrator) discoverLazyChunks(ctx context.Context, fs *fileSet) {
	frontier := fs.list()

	for round := 0; round < maxLazyChunkRounds && len(frontier) > 0; round++ {
		candidates := lazychunk.Discover(frontier)

		var next []types.JsFile
		for _, u := range candidates {
			if fs.has(u) {
				continue
			}
			jsFile := o.fetcher.FetchOne(ctx, u, types.JsSourceProbe)
			if jsFile == nil {
				continue
			}
			if fs.add(*jsFile) {
				next = append(next, *jsFile)
			}
		}
		frontier = next
	}
}

// extractAll runs every extractor over every file concurrently and merges
// their output into one candidate set, along with the union of
// workspace-only names reported by the source-map extractor.
func (o *Orchestrator) extractAll(ctx context.Context, files []types.JsFile) ([]types.Package, int) {
	var mu sync.Mutex
	var packages []types.Package
	workspaceOnlyCount := 0
	var wg sync.WaitGroup

	for _, f := range files {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			if len(f.Content) > maxFileBytes {
				return
			}
			pkgs, ws := o.extractFile(ctx, f)
			mu.Lock()
			packages = append(packages, pkgs...)
			workspaceOnlyCount += len(ws)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return packages, workspaceOnlyCount
}

// extractFile runs all five extractors (AST, source map, webpack,
// bundler, deobfuscator) over one JsFile's content.
func (o *Orchestrator) extractFile(ctx context.Context, f types.JsFile) ([]types.Package, []string) {
	var packages []types.Package

	packages = append(packages, o.astp.Parse(f.Content, f.URL)...)
	packages = append(packages, webpack.ExtractPackages(f.Content, f.URL)...)
	packages = append(packages, bundler.ExtractPackages(f.Content, f.URL)...)

	if deobfuscate.IsLikelyObfuscated(f.Content) {
		packages = append(packages, deobfuscate.ExtractPackages(f.Content, f.URL)...)
	}

	var workspaceOnly []string
	if mapContent, mapURL, ok := o.resolveSourceMap(ctx, f); ok {
		smPkgs, ws, err := sourcemap.Parse(mapContent, mapURL)
		if err == nil {
			packages = append(packages, smPkgs...)
			workspaceOnly = append(workspaceOnly, ws...)
		} else {
			o.logger.Debug("orchestrate: source map parse failed", "url", mapURL, "error", err)
		}
	}

	if buildID, ok := webpack.ExtractNextjsBuildID(f.Content); ok {
		packages = append(packages, o.extractNextjsManifests(ctx, f.URL, buildID)...)
	}

	filtered := packages[:0]
	for _, pkg := range packages {
		if filter.ShouldFilterPackage(pkg.Name, f.Content, f.URL) {
			continue
		}
		filtered = append(filtered, pkg)
	}

	return filtered, workspaceOnly
}

// resolveSourceMap returns the source map content and the URL it was
// fetched from, either via the comment-referenced sourceMappingURL or,
// for files that look bundled and carry no such comment, a probed .map
// URL variation.
func (o *Orchestrator) resolveSourceMap(ctx context.Context, f types.JsFile) (content, mapURL string, ok bool) {
	if f.SourceMapURL != "" {
		if strings.HasPrefix(f.SourceMapURL, "data:") {
			if decoded, dOK := sourcemap.DecodeInline(f.SourceMapURL); dOK {
				return decoded, f.URL, true
			}
			return "", "", false
		}
		jsFile := o.fetcher.FetchOne(ctx, f.SourceMapURL, types.JsSourceProbe)
		if jsFile != nil {
			return jsFile.Content, f.SourceMapURL, true
		}
		return "", "", false
	}

	if !webpack.IsBundle(f.Content) {
		return "", "", false
	}
	mapURL, content, found := o.prober.Probe(ctx, f.URL)
	return content, mapURL, found
}

// extractNextjsManifests fetches and AST-parses the well-known Next.js
// build manifest and chunk files once a build ID is found embedded in a
// bundle, pulling in extra import references those files alone carry.
func (o *Orchestrator) extractNextjsManifests(ctx context.Context, fileURL, buildID string) []types.Package {
	origin := originOf(fileURL)
	if origin == "" {
		return nil
	}

	var packages []types.Package
	for _, manifestURL := range webpack.NextjsManifestURLs(origin, buildID) {
		jsFile := o.fetcher.FetchOne(ctx, manifestURL, types.JsSourceProbe)
		if jsFile == nil {
			continue
		}
		packages = append(packages, o.astp.Parse(jsFile.Content, jsFile.URL)...)
	}
	return packages
}

// checkRegistry verifies every candidate package against npm at bounded
// concurrency (registryConcurrency), applying the exploitability
// predicate to decide which results become Findings.
func (o *Orchestrator) checkRegistry(ctx context.Context, candidates []types.Package) []types.Finding {
	results := make([]*types.Finding, len(candidates))
	sem := make(chan struct{}, registryConcurrency)
	var wg sync.WaitGroup

	for i, pkg := range candidates {
		i, pkg := i, pkg
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			result := o.reg.Check(ctx, pkg)
			if !findings.ShouldReport(result) {
				return
			}
			f := findings.Build(pkg, result)
			results[i] = &f
		}()
	}
	wg.Wait()

	out := make([]types.Finding, 0, len(candidates))
	for _, f := range results {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
