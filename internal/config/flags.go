package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "webtop [flags] URL",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.String("target", "", "Target URL to monitor (may also be given as the positional argument)")
	flags.String("method", "GET", "HTTP method: GET, HEAD, OPTIONS or TRACE")
	flags.StringToString("header", nil, "Additional request header in key=value form (repeatable)")
	flags.Duration("timeout", 10*time.Second, "Per-request timeout")
	flags.String("resolve", "", "Manually resolve the target host to an address (host:address)")
	flags.Bool("follow-redirects", true, "Follow 3xx redirects")
	flags.Bool("verify-tls", true, "Verify TLS certificates")

	// Load control flags
	flags.IntP("workers", "k", 1, "Number of concurrent request workers")
	flags.Int("history", 1000, "Number of request results to track")
	flags.DurationP("duration", "d", 0, "Stop automatically after this much time (0 = run until interrupted)")
	flags.IntP("rate", "r", 0, "Requests per second cap across all workers (0 = unlimited)")

	// Output flags
	flags.StringP("output", "o", string(OutputJSON), "Output format: json or yaml")
	flags.Duration("refresh", 100*time.Millisecond, "How often to redraw statistics")
	flags.Bool("dashboard", false, "Show live terminal dashboard instead of text output")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Logging flags
	flags.String("log-dir", "", "Directory for rotated log files (stderr only when empty)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	// Tracing flags
	flags.String("otel-endpoint", "", "OTLP endpoint for request spans")
	flags.String("otel-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("otel-service", "", "Service name reported on spans")
	flags.Bool("otel-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("otel-sample-rate", 1.0, "Span sample rate between 0.0 and 1.0")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
