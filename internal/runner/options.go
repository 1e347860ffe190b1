package runner

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webtop-sh/webtop/internal/httpclient"
)

// Options configure a Runner. One Runner manages exactly one run.
type Options struct {
	URL     string            // absolute target URL (required)
	Method  string            // HTTP method, defaults to GET
	Headers map[string]string // extra request headers

	Workers    int           // number of concurrent request workers
	WindowSize int           // capacity of the rolling result window
	Duration   time.Duration // optional auto-stop after this much time (0 = run until Stop)
	Rate       int           // optional requests-per-second cap across all workers (0 = unlimited)

	Client *http.Client // request client; a default tuned client is built when nil
	Logger *zap.Logger
	Tracer trace.Tracer // optional per-request client spans
}

func (o *Options) normalize() {
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.WindowSize < 1 {
		o.WindowSize = 1
	}
	if o.Rate < 0 {
		o.Rate = 0
	}
	if o.Client == nil {
		o.Client = httpclient.New(httpclient.Options{
			Timeout:         30 * time.Second,
			FollowRedirects: true,
			VerifyTLS:       true,
		})
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o *Options) limiter() *rate.Limiter {
	if o.Rate <= 0 {
		return nil
	}
	// Burst equal to rps to smooth pacing under concurrency.
	return rate.NewLimiter(rate.Limit(o.Rate), o.Rate)
}
