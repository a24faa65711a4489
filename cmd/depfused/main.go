// Command depfused renders target web pages in headless Chrome, extracts
// every third-party package reference from the JS they load, and checks
// the npm registry for names or scopes that are referenced but unclaimed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/depfused/depfused/capture"
	"github.com/depfused/depfused/httpapi"
	"github.com/depfused/depfused/mcpserver"
	"github.com/depfused/depfused/orchestrate"
	"github.com/depfused/depfused/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	verbose := false
	for _, a := range os.Args[1:] {
		if a == "-verbose" || a == "--verbose" {
			verbose = true
		}
	}
	logger := newLogger(verbose)
	slog.SetDefault(logger)

	// Telegram push is an external collaborator this binary doesn't
	// implement; these root flags/env vars are accepted so the documented
	// interface exists, but nothing here sends to Telegram.
	telegramToken := rootFlagOrEnv(os.Args[1:], "telegram-token", "DEPFUSED_TELEGRAM_TOKEN")
	telegramChatID := rootFlagOrEnv(os.Args[1:], "telegram-chat-id", "DEPFUSED_TELEGRAM_CHAT_ID")
	if telegramToken != "" || telegramChatID != "" {
		logger.Debug("depfused: telegram credentials supplied but push notifications are unimplemented")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(ctx, logger, os.Args[2:])
	case "serve":
		err = runServe(ctx, logger, os.Args[2:])
	case "setup":
		err = runSetup(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if ctx.Err() != nil {
		logger.Info("depfused: signal received, shutting down")
		os.Exit(130)
	}
	if err != nil {
		logger.Error("depfused: fatal", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: depfused <scan|serve|setup> [flags] [targets...]`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// scanFlags holds the scan subcommand's flag values, registered under
// both a long and short name where both are supported.
type scanFlags struct {
	file          string
	jsonOutput    bool
	output        string
	timeout       time.Duration
	maxRetries    int
	rateLimit     float64
	skipNpmCheck  bool
	scopedOnly    bool
	userAgent     string
	minConfidence string
	parallel      int
	fast          bool
	quiet         bool
	chromePath    string
	registryURL   string
	config        string
}

func runScan(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var sf scanFlags

	fs.StringVar(&sf.file, "f", "", "path to a file of newline-separated target URLs")
	fs.StringVar(&sf.file, "file", "", "path to a file of newline-separated target URLs")
	fs.BoolVar(&sf.jsonOutput, "json", false, "emit ScanResults as JSON")
	fs.StringVar(&sf.output, "o", "", "write JSON output to this path instead of stdout")
	fs.StringVar(&sf.output, "output", "", "write JSON output to this path instead of stdout")
	timeoutSecs := fs.Int("timeout", 30, "per-page navigation timeout, seconds")
	fs.IntVar(&sf.maxRetries, "max-retries", 3, "max fetch retries")
	fs.Float64Var(&sf.rateLimit, "rate-limit", 10, "outbound JS fetch rate, requests/second")
	fs.BoolVar(&sf.skipNpmCheck, "skip-npm-check", false, "skip registry verification, just extract and list")
	fs.BoolVar(&sf.scopedOnly, "scoped-only", false, "only report scoped (@scope/name) package findings")
	fs.StringVar(&sf.userAgent, "user-agent", types.DefaultHTTPConfig().UserAgent, "User-Agent header for outbound requests")
	fs.StringVar(&sf.minConfidence, "min-confidence", "low", "minimum extraction confidence to report: low, medium, high")
	fs.IntVar(&sf.parallel, "p", 1, "number of origin groups to scan in parallel")
	fs.IntVar(&sf.parallel, "parallel", 1, "number of origin groups to scan in parallel")
	fs.BoolVar(&sf.fast, "fast", false, "reduce settle waits; may miss some lazy-loaded JS")
	fs.BoolVar(&sf.quiet, "q", false, "suppress progress logging")
	fs.BoolVar(&sf.quiet, "quiet", false, "suppress progress logging")
	fs.StringVar(&sf.chromePath, "chrome-path", "", "path to a Chrome/Chromium executable")
	fs.StringVar(&sf.registryURL, "registry-url", "", "override the npm registry base URL")
	fs.StringVar(&sf.config, "config", "", "YAML config file of scan defaults; explicit flags override it")
	telegram := fs.Bool("telegram", false, "accepted for compatibility; this build has no Telegram push and ignores it")
	_ = telegram

	if err := fs.Parse(args); err != nil {
		return err
	}

	var fileTargets []string
	if sf.config != "" {
		fc, err := loadConfigFile(sf.config)
		if err != nil {
			return fmt.Errorf("scan: load --config: %w", err)
		}
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		fc.applyScanFlags(&sf, timeoutSecs, set)
		fileTargets = fc.Targets
	}

	if sf.quiet {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		slog.SetDefault(logger)
	}

	targets, err := collectTargets(append(fileTargets, fs.Args()...), sf.file)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("scan: no targets given (pass positional URLs, -f/--file, or --config)")
	}

	confidence, err := parseConfidence(sf.minConfidence)
	if err != nil {
		return err
	}

	cfg := orchestrate.Config{
		Capture: captureConfig(time.Duration(*timeoutSecs)*time.Second, sf.fast, sf.chromePath),
		HTTP: types.HTTPConfig{
			Timeout:    time.Duration(*timeoutSecs) * time.Second,
			MaxRetries: sf.maxRetries,
			UserAgent:  sf.userAgent,
		},
		RegistryURL:     sf.registryURL,
		FetchRatePerSec: sf.rateLimit,
		Parallel:        sf.parallel,
		MinConfidence:   confidence,
		ScopedOnly:      sf.scopedOnly,
		SkipNpmCheck:    sf.skipNpmCheck,
		Logger:          logger,
	}
	o := orchestrate.New(cfg)

	results := o.ScanMultiple(ctx, targets)

	if sf.jsonOutput || sf.output != "" {
		return writeResults(sf.output, results)
	}
	for _, r := range results {
		logger.Info("depfused: scan complete",
			"target", r.Target, "js_files", r.JsFilesCount,
			"packages", r.PackagesFound, "findings", len(r.Findings))
		for _, f := range r.Findings {
			logger.Warn("depfused: finding",
				"package", f.Package.Name, "severity", f.Severity.String(), "npm_status", string(f.NpmResult.Kind))
		}
	}
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", envOr("PORT", "8085"), "HTTP listen port")
	mcpOnly := fs.Bool("mcp", false, "run an MCP server over stdio instead of the HTTP trigger endpoint")
	timeoutSecs := fs.Int("timeout", 30, "per-page navigation timeout, seconds")
	rateLimit := fs.Float64("rate-limit", 10, "outbound JS fetch rate, requests/second")
	parallel := fs.Int("parallel", 2, "number of origin groups to scan in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := orchestrate.Config{
		Capture:         captureConfig(time.Duration(*timeoutSecs)*time.Second, false, ""),
		HTTP:            types.HTTPConfig{Timeout: time.Duration(*timeoutSecs) * time.Second, MaxRetries: 3, UserAgent: types.DefaultHTTPConfig().UserAgent},
		FetchRatePerSec: *rateLimit,
		Parallel:        *parallel,
		Logger:          logger,
	}
	o := orchestrate.New(cfg)

	if *mcpOnly {
		srv := mcp.NewServer(&mcp.Implementation{Name: "depfused", Version: "0.1.0"}, nil)
		mcpserver.RegisterMCP(srv, o)
		logger.Info("depfused: MCP server running over stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	router := httpapi.NewRouter(o, logger)
	srv := &http.Server{Addr: ":" + *port, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("depfused: HTTP trigger listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	force := fs.Bool("force", false, "accepted for compatibility; has no effect, since this build has no managed Chrome download")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// Managed-browser download/path-resolution is an external collaborator
	// this binary doesn't implement; setup only reports what it would
	// need to do.
	_ = force
	fmt.Fprintln(os.Stderr, "depfused setup: managed Chrome download is not bundled with this build; install Chrome/Chromium and pass --chrome-path to scan/serve instead.")
	return nil
}

// captureConfig builds the browser-capture config shared by scan and serve:
// headless by default, with an optional explicit Chrome/Chromium binary.
func captureConfig(timeout time.Duration, fast bool, chromePath string) capture.Config {
	return capture.Config{
		Timeout:    timeout,
		Headless:   true,
		FastMode:   fast,
		ChromePath: chromePath,
	}
}

func collectTargets(positional []string, file string) ([]string, error) {
	var targets []string
	targets = append(targets, positional...)

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("scan: open targets file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			targets = append(targets, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan: read targets file: %w", err)
		}
	}

	for i, t := range targets {
		if !strings.HasPrefix(t, "http://") && !strings.HasPrefix(t, "https://") {
			targets[i] = "https://" + t
		}
	}
	return targets, nil
}

func parseConfidence(s string) (types.Confidence, error) {
	switch strings.ToLower(s) {
	case "low":
		return types.ConfidenceLow, nil
	case "medium":
		return types.ConfidenceMedium, nil
	case "high":
		return types.ConfidenceHigh, nil
	default:
		return 0, fmt.Errorf("scan: invalid --min-confidence %q (want low, medium, or high)", s)
	}
}

func writeResults(outPath string, results []types.ScanResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("scan: marshal results: %w", err)
	}
	if outPath == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(outPath, append(data, '\n'), 0o644)
}

// rootFlagOrEnv scans args for "-name value", "-name=value", or the "--"
// long form, falling back to the given environment variable.
func rootFlagOrEnv(args []string, name, envKey string) string {
	long, short := "--"+name, "-"+name
	for i, a := range args {
		switch {
		case a == long || a == short:
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, long+"="):
			return strings.TrimPrefix(a, long+"=")
		case strings.HasPrefix(a, short+"="):
			return strings.TrimPrefix(a, short+"=")
		}
	}
	return os.Getenv(envKey)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
