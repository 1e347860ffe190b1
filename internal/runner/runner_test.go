package runner_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webtop-sh/webtop/internal/runner"
)

func waitForSamples(t *testing.T, r *runner.Runner, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if r.Stats().SampleSize >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d samples, have %d", n, r.Stats().SampleSize)
}

func TestRunnerFillsWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    4,
		WindowSize: 3,
		Client:     testClient(5 * time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitForSamples(t, r, 3)
	r.Stop()

	snap := r.Stats()
	if snap.SampleSize != 3 {
		t.Fatalf("window capacity 3 must bound the sample, got %d", snap.SampleSize)
	}
	if snap.SuccessRate != 100.0 {
		t.Fatalf("expected all successes, got %f", snap.SuccessRate)
	}
	if got := snap.CountByReason.Get("HTTP 200"); got != 3 {
		t.Fatalf("expected HTTP 200 x3, got %d", got)
	}
	if snap.URL != server.URL || snap.Verb != http.MethodGet {
		t.Fatalf("snapshot identity wrong: %s %s", snap.Verb, snap.URL)
	}
}

func TestStatsCallableDuringRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    2,
		WindowSize: 100,
		Client:     testClient(5 * time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	// Repeated aggregation must never block or fail while workers write.
	for i := 0; i < 50; i++ {
		snap := r.Stats()
		if snap.SampleSize > 100 {
			t.Fatalf("sample size exceeded window capacity: %d", snap.SampleSize)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStopIsBoundedByInFlightRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    4,
		WindowSize: 10,
		Client:     testClient(time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	r.Stop()
	elapsed := time.Since(start)

	// Each worker finishes at most one in-flight attempt bounded by the
	// client timeout; allow generous scheduling slack.
	if elapsed > 3*time.Second {
		t.Fatalf("stop took too long: %s", elapsed)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    1,
		WindowSize: 5,
		Client:     testClient(time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	r.Stop()
	r.Stop() // must not panic or block
}

func TestStartIsNotReentrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    1,
		WindowSize: 5,
		Client:     testClient(time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	if err := r.Start(context.Background()); !errors.Is(err, runner.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestDurationAutoStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    2,
		WindowSize: 10,
		Duration:   100 * time.Millisecond,
		Client:     testClient(time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("duration timer did not stop the run")
	}

	// Manual stop after the timer fired stays idempotent.
	r.Stop()

	if r.Stats().SampleSize == 0 {
		t.Fatal("expected some samples before auto-stop")
	}
}

func TestRateCapLimitsThroughput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    10,
		WindowSize: 10_000,
		Rate:       50,
		Duration:   200 * time.Millisecond,
		Client:     testClient(time.Second),
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-r.Done()
	r.Stop()

	// Initial burst of 50 plus ~10 sustained for 200ms; anything near
	// unlimited throughput means the limiter is not applied.
	if got := r.Stats().SampleSize; got > 90 {
		t.Fatalf("rate cap exceeded: %d samples in 200ms at 50rps", got)
	}
}

func TestParentContextCancellationStopsWorkers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	r := runner.New(runner.Options{
		URL:        server.URL,
		Method:     http.MethodGet,
		Workers:    2,
		WindowSize: 10,
		Client:     testClient(time.Second),
	})
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	waitForSamples(t, r, 1)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("workers did not observe parent cancellation")
	}
}
