// Package config provides configuration loading and validation for webtop.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// OutputFormat selects how statistics are rendered between refreshes.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// Config is the immutable input for one monitoring run. It is constructed
// once by the loader and never mutated afterwards.
type Config struct {
	TargetURL string            `mapstructure:"target"`
	Method    string            `mapstructure:"method"`
	Headers   map[string]string `mapstructure:"headers"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	History   int               `mapstructure:"history"`
	Workers   int               `mapstructure:"workers"`
	Duration  time.Duration     `mapstructure:"duration"`
	Rate      int               `mapstructure:"rate"`

	// Resolve is an optional "host:address" pair. The override is applied
	// only when host matches the target URL's hostname.
	Resolve string `mapstructure:"resolve"`

	FollowRedirects bool `mapstructure:"follow_redirects"`
	VerifyTLS       bool `mapstructure:"verify_tls"`

	Output    OutputFormat  `mapstructure:"output"`
	Refresh   time.Duration `mapstructure:"refresh"`
	Dashboard bool          `mapstructure:"dashboard"`

	LogDir  string `mapstructure:"log_dir"`
	Verbose bool   `mapstructure:"verbose"`

	Tracing TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig configures optional OTLP span export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

var allowedMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"OPTIONS": true,
	"TRACE":   true,
}

// ValidationError aggregates every configuration issue found.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual validation problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the configuration, collecting all issues before failing.
func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target URL is required (use --help for usage information)")
	} else {
		u, err := url.Parse(target)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("target URL is invalid: %v", err))
		case !u.IsAbs():
			issues = append(issues, "target URL must be absolute")
		case u.Scheme != "http" && u.Scheme != "https":
			issues = append(issues, fmt.Sprintf("target URL scheme must be http or https, got %q", u.Scheme))
		case u.Hostname() == "":
			issues = append(issues, "target URL must include a host")
		}
	}

	if !allowedMethods[strings.ToUpper(c.Method)] {
		issues = append(issues, fmt.Sprintf("method must be one of GET, HEAD, OPTIONS, TRACE, got %q", c.Method))
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.History < 1 {
		issues = append(issues, "history must be >= 1")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Refresh <= 0 {
		issues = append(issues, "refresh must be > 0")
	}
	if c.Resolve != "" && !strings.Contains(c.Resolve, ":") {
		issues = append(issues, "resolve must be in host:address form")
	}
	if c.Output != OutputJSON && c.Output != OutputYAML {
		issues = append(issues, fmt.Sprintf("output must be json or yaml, got %q", c.Output))
	}
	if c.Dashboard && c.Output == OutputYAML {
		// The dashboard replaces rendered output entirely; only the default
		// format is meaningful alongside it.
		issues = append(issues, "dashboard and output format are mutually exclusive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ResolveMap returns the name-resolution override as a map, applied only
// when the override host matches the target URL's hostname. Unrelated hosts
// are never overridden.
func (c Config) ResolveMap() map[string]string {
	if c.Resolve == "" {
		return nil
	}
	host, address, ok := strings.Cut(c.Resolve, ":")
	if !ok || host == "" || address == "" {
		return nil
	}
	u, err := url.Parse(c.TargetURL)
	if err != nil || u.Hostname() != host {
		return nil
	}
	return map[string]string{host: address}
}
