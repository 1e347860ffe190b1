package runner

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webtop-sh/webtop/internal/sample"
	"github.com/webtop-sh/webtop/internal/tracing"
)

// Executor performs one HTTP request and classifies the outcome. It never
// returns an error: every attempt, however it fails, becomes an Outcome.
type Executor struct {
	client  *http.Client
	url     string
	method  string
	headers http.Header
	tracer  trace.Tracer
}

// NewExecutor builds an executor from runner options.
func NewExecutor(opt Options) *Executor {
	headers := make(http.Header, len(opt.Headers))
	for k, v := range opt.Headers {
		headers.Set(k, v)
	}
	return &Executor{
		client:  opt.Client,
		url:     opt.URL,
		method:  opt.Method,
		headers: headers,
		tracer:  opt.Tracer,
	}
}

// Do issues a single request. Latency spans from just before the call until
// the response body is fully drained. The request context is detached from
// the run context: cancelling a run never aborts an in-flight attempt, the
// client timeout is the only bound.
func (e *Executor) Do(ctx context.Context) sample.Outcome {
	ctx = context.WithoutCancel(ctx)

	var span trace.Span
	if e.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, e.tracer, e.method, e.url)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, e.method, e.url, nil)
	if err != nil {
		return e.finish(span, sample.Failure(err), err)
	}
	for key, values := range e.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.finish(span, sample.Failure(err), err)
	}

	_, readErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)

	if readErr != nil {
		return e.finish(span, sample.Failure(readErr), readErr)
	}

	if span != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}
	return e.finish(span, sample.Response(resp.StatusCode, latency), nil)
}

func (e *Executor) finish(span trace.Span, outcome sample.Outcome, err error) sample.Outcome {
	if span != nil {
		tracing.EndSpan(span, err, attribute.String("webtop.reason", outcome.Label()))
	}
	return outcome
}
