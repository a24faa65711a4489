package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is an optional YAML config file for the scan subcommand,
// loaded with --config and applied as a base layer under whatever flags
// the invocation also passes; flags always win over the file.
type fileConfig struct {
	Targets       []string      `yaml:"targets"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RateLimit     float64       `yaml:"rate_limit"`
	SkipNpmCheck  bool          `yaml:"skip_npm_check"`
	ScopedOnly    bool          `yaml:"scoped_only"`
	UserAgent     string        `yaml:"user_agent"`
	MinConfidence string        `yaml:"min_confidence"`
	Parallel      int           `yaml:"parallel"`
	Fast          bool          `yaml:"fast"`
	ChromePath    string        `yaml:"chrome_path"`
	RegistryURL   string        `yaml:"registry_url"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyScanFlags layers fs's explicitly-set flags over fc, so a flag the
// caller passed always beats the file and an unset flag falls back to it.
func (fc *fileConfig) applyScanFlags(sf *scanFlags, timeoutSecs *int, set map[string]bool) {
	if fc == nil {
		return
	}
	if !set["timeout"] && fc.Timeout > 0 {
		*timeoutSecs = int(fc.Timeout / time.Second)
	}
	if !set["max-retries"] && fc.MaxRetries > 0 {
		sf.maxRetries = fc.MaxRetries
	}
	if !set["rate-limit"] && fc.RateLimit > 0 {
		sf.rateLimit = fc.RateLimit
	}
	if !set["skip-npm-check"] && fc.SkipNpmCheck {
		sf.skipNpmCheck = true
	}
	if !set["scoped-only"] && fc.ScopedOnly {
		sf.scopedOnly = true
	}
	if !set["user-agent"] && fc.UserAgent != "" {
		sf.userAgent = fc.UserAgent
	}
	if !set["min-confidence"] && fc.MinConfidence != "" {
		sf.minConfidence = fc.MinConfidence
	}
	if !set["parallel"] && !set["p"] && fc.Parallel > 0 {
		sf.parallel = fc.Parallel
	}
	if !set["fast"] && fc.Fast {
		sf.fast = true
	}
	if !set["chrome-path"] && fc.ChromePath != "" {
		sf.chromePath = fc.ChromePath
	}
	if !set["registry-url"] && fc.RegistryURL != "" {
		sf.registryURL = fc.RegistryURL
	}
}
