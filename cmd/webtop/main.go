package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/webtop-sh/webtop/internal/config"
	"github.com/webtop-sh/webtop/internal/dashboard"
	"github.com/webtop-sh/webtop/internal/httpclient"
	"github.com/webtop-sh/webtop/internal/logging"
	"github.com/webtop-sh/webtop/internal/output"
	"github.com/webtop-sh/webtop/internal/runner"
	"github.com/webtop-sh/webtop/internal/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Verbose, cfg.LogDir)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Protocol:    cfg.Tracing.Protocol,
		ServiceName: cfg.Tracing.ServiceName,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	client := httpclient.New(httpclient.Options{
		Timeout:         cfg.Timeout,
		FollowRedirects: cfg.FollowRedirects,
		VerifyTLS:       cfg.VerifyTLS,
		Resolve:         cfg.ResolveMap(),
	})

	opts := runner.Options{
		URL:        cfg.TargetURL,
		Method:     cfg.Method,
		Headers:    cfg.Headers,
		Workers:    cfg.Workers,
		WindowSize: cfg.History,
		Duration:   cfg.Duration,
		Rate:       cfg.Rate,
		Client:     client,
		Logger:     logger,
	}
	if provider.Enabled() {
		opts.Tracer = provider.Tracer()
	}

	r := runner.New(opts)
	if err := r.Start(ctx); err != nil {
		return err
	}

	if cfg.Dashboard {
		dash, err := dashboard.New(r.Stats, cancel)
		if err != nil {
			r.Stop()
			return err
		}
		dash.Start()
		waitForRun(ctx, r)
		r.Stop()
		dash.Stop()
	} else {
		refresher := output.NewRefresher(r.Stats, cfg.Output, cfg.Refresh, os.Stdout)
		refresher.Start()
		waitForRun(ctx, r)
		refresher.Stop()
		r.Stop()
	}

	// One final report with the run's last window contents.
	return output.Render(os.Stdout, output.BuildReport(r.Stats()), cfg.Output)
}

// waitForRun blocks until the user interrupts or the run finishes on its own
// (duration elapsed).
func waitForRun(ctx context.Context, r *runner.Runner) {
	select {
	case <-ctx.Done():
	case <-r.Done():
	}
}
