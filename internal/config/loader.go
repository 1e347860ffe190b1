package config

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional configuration file to
// produce a Config. Flags override file settings; the target URL may be
// given positionally.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		Method:          http.MethodGet,
		Headers:         map[string]string{},
		Timeout:         10 * time.Second,
		History:         1000,
		Workers:         1,
		FollowRedirects: true,
		VerifyTLS:       true,
		Output:          OutputJSON,
		Refresh:         100 * time.Millisecond,
		Tracing:         TracingConfig{Protocol: "grpc", SampleRate: 1.0},
		ConfigFile:      configPath,
	}

	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := cfgViper.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if cfg.TargetURL == "" && flagSet.NArg() > 0 {
		cfg.TargetURL = flagSet.Arg(0)
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.Resolve = strings.TrimSpace(cfg.Resolve)
	cfg.Output = OutputFormat(strings.ToLower(string(cfg.Output)))

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("header") {
		hdrs, err := fs.GetStringToString("header")
		if err != nil {
			return err
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("resolve") {
		val, err := fs.GetString("resolve")
		if err != nil {
			return err
		}
		cfg.Resolve = val
	}
	if fs.Changed("follow-redirects") {
		val, err := fs.GetBool("follow-redirects")
		if err != nil {
			return err
		}
		cfg.FollowRedirects = val
	}
	if fs.Changed("verify-tls") {
		val, err := fs.GetBool("verify-tls")
		if err != nil {
			return err
		}
		cfg.VerifyTLS = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("history") {
		val, err := fs.GetInt("history")
		if err != nil {
			return err
		}
		cfg.History = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("refresh") {
		val, err := fs.GetDuration("refresh")
		if err != nil {
			return err
		}
		cfg.Refresh = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-dir") {
		val, err := fs.GetString("log-dir")
		if err != nil {
			return err
		}
		cfg.LogDir = val
	}
	if fs.Changed("verbose") {
		val, err := fs.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = val
	}
	if fs.Changed("otel-endpoint") {
		val, err := fs.GetString("otel-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = val
	}
	if fs.Changed("otel-protocol") {
		val, err := fs.GetString("otel-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otel-service") {
		val, err := fs.GetString("otel-service")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("otel-insecure") {
		val, err := fs.GetBool("otel-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("otel-sample-rate") {
		val, err := fs.GetFloat64("otel-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
