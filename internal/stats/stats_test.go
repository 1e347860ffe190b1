package stats_test

import (
	"encoding/json"
	"errors"
	"math"
	"syscall"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/webtop-sh/webtop/internal/sample"
	"github.com/webtop-sh/webtop/internal/stats"
	"github.com/webtop-sh/webtop/internal/window"
)

// Five outcomes through a capacity-3 window: stats reflect only the three
// survivors, with reasons in first-seen order over the window.
func TestComputeOverEvictedWindow(t *testing.T) {
	win := window.New(3)
	win.Append(sample.Response(200, 10*time.Millisecond))
	win.Append(sample.Response(500, 10*time.Millisecond))
	win.Append(sample.Response(200, 10*time.Millisecond))
	win.Append(sample.Failure(syscall.ECONNREFUSED))
	win.Append(sample.Response(200, 10*time.Millisecond))

	snap := stats.Compute("http://example.test/", "GET", win.Snapshot())

	if snap.SampleSize != 3 {
		t.Fatalf("expected sample size 3, got %d", snap.SampleSize)
	}
	if math.Abs(snap.SuccessRate-200.0/3.0) > 0.001 {
		t.Fatalf("expected 66.67%% success, got %f", snap.SuccessRate)
	}
	want := stats.ReasonCounts{
		{Reason: "HTTP 200", Count: 2},
		{Reason: "ConnectionRefused", Count: 1},
	}
	if len(snap.CountByReason) != len(want) {
		t.Fatalf("expected %v, got %v", want, snap.CountByReason)
	}
	for i, b := range want {
		if snap.CountByReason[i] != b {
			t.Fatalf("reason %d: expected %v, got %v", i, b, snap.CountByReason[i])
		}
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := stats.Compute("http://example.test/", "GET", nil)

	if snap.SampleSize != 0 {
		t.Fatalf("expected sample size 0, got %d", snap.SampleSize)
	}
	if snap.SuccessRate != 0 {
		t.Fatalf("expected success rate 0, got %f", snap.SuccessRate)
	}
	if snap.AverageLatency != 0 {
		t.Fatalf("expected average latency 0, got %d", snap.AverageLatency)
	}
	if len(snap.CountByReason) != 0 {
		t.Fatalf("expected no reasons, got %v", snap.CountByReason)
	}
}

func TestAllSuccessSnapshot(t *testing.T) {
	outcomes := make([]sample.Outcome, 10)
	for i := range outcomes {
		outcomes[i] = sample.Response(200, 5*time.Millisecond)
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	if snap.SampleSize != 10 {
		t.Fatalf("expected sample size 10, got %d", snap.SampleSize)
	}
	if snap.SuccessRate != 100.0 {
		t.Fatalf("expected 100%% success, got %f", snap.SuccessRate)
	}
	if len(snap.CountByReason) != 1 {
		t.Fatalf("expected a single reason, got %v", snap.CountByReason)
	}
	if got := snap.CountByReason.Get("HTTP 200"); got != 10 {
		t.Fatalf("expected HTTP 200 count 10, got %d", got)
	}
}

func TestMeanLatencyRoundsUp(t *testing.T) {
	outcomes := []sample.Outcome{
		sample.Response(200, 10*time.Millisecond),
		sample.Response(200, 11*time.Millisecond),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	// ceiling of 10.5ms
	if snap.AverageLatency != 11 {
		t.Fatalf("expected mean latency 11, got %d", snap.AverageLatency)
	}
}

func TestMeanLatencyIgnoresFailures(t *testing.T) {
	outcomes := []sample.Outcome{
		sample.Response(200, 10*time.Millisecond),
		sample.Failure(syscall.ECONNREFUSED),
		sample.Response(200, 20*time.Millisecond),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	// Mean is over completed responses only, never diluted by failures.
	if snap.AverageLatency != 15 {
		t.Fatalf("expected mean latency 15, got %d", snap.AverageLatency)
	}
	if math.Abs(snap.SuccessRate-2.0/3.0*100) > 0.001 {
		t.Fatalf("expected success rate 66.67, got %f", snap.SuccessRate)
	}
}

func TestAllFailuresHasZeroMeanLatency(t *testing.T) {
	outcomes := []sample.Outcome{
		sample.Failure(syscall.ECONNREFUSED),
		sample.Failure(syscall.ECONNREFUSED),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	if snap.AverageLatency != 0 {
		t.Fatalf("expected mean latency 0 with no responses, got %d", snap.AverageLatency)
	}
	if snap.SuccessRate != 0 {
		t.Fatalf("expected success rate 0, got %f", snap.SuccessRate)
	}
}

func TestReasonOrderIsFirstSeen(t *testing.T) {
	// The classic rolling-window sequence: 5 outcomes into capacity 3 leaves
	// [200, ConnectionRefused, 200].
	outcomes := []sample.Outcome{
		sample.Response(200, 10*time.Millisecond),
		sample.Failure(syscall.ECONNREFUSED),
		sample.Response(200, 12*time.Millisecond),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	if len(snap.CountByReason) != 2 {
		t.Fatalf("expected 2 reasons, got %v", snap.CountByReason)
	}
	if snap.CountByReason[0].Reason != "HTTP 200" || snap.CountByReason[0].Count != 2 {
		t.Fatalf("expected HTTP 200 x2 first, got %+v", snap.CountByReason[0])
	}
	if snap.CountByReason[1].Reason != "ConnectionRefused" || snap.CountByReason[1].Count != 1 {
		t.Fatalf("expected ConnectionRefused x1 second, got %+v", snap.CountByReason[1])
	}
	if math.Abs(snap.SuccessRate-66.6666) > 0.001 {
		t.Fatalf("expected 66.67%% success, got %f", snap.SuccessRate)
	}
}

func TestPercentiles(t *testing.T) {
	outcomes := make([]sample.Outcome, 0, 100)
	for i := 1; i <= 100; i++ {
		outcomes = append(outcomes, sample.Response(200, time.Duration(i)*time.Millisecond))
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	approx := func(got time.Duration, want time.Duration) bool {
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		return diff <= 2*time.Millisecond
	}
	if !approx(snap.P50Latency, 50*time.Millisecond) {
		t.Errorf("p50 off: %s", snap.P50Latency)
	}
	if !approx(snap.P90Latency, 90*time.Millisecond) {
		t.Errorf("p90 off: %s", snap.P90Latency)
	}
	if !approx(snap.P99Latency, 99*time.Millisecond) {
		t.Errorf("p99 off: %s", snap.P99Latency)
	}
	if snap.MinLatency != time.Millisecond {
		t.Errorf("min off: %s", snap.MinLatency)
	}
	if snap.MaxLatency != 100*time.Millisecond {
		t.Errorf("max off: %s", snap.MaxLatency)
	}
}

func TestReasonCountsJSONOrder(t *testing.T) {
	outcomes := []sample.Outcome{
		sample.Response(500, time.Millisecond),
		sample.Failure(errors.New("boom")),
		sample.Response(200, time.Millisecond),
		sample.Response(500, time.Millisecond),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	raw, err := json.Marshal(snap.CountByReason)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"HTTP 500":2,"Error":1,"HTTP 200":1}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}

func TestReasonCountsYAMLOrder(t *testing.T) {
	outcomes := []sample.Outcome{
		sample.Response(503, time.Millisecond),
		sample.Response(200, time.Millisecond),
	}
	snap := stats.Compute("http://example.test/", "GET", outcomes)

	raw, err := yaml.Marshal(snap.CountByReason)
	if err != nil {
		t.Fatal(err)
	}
	want := "HTTP 503: 1\nHTTP 200: 1\n"
	if string(raw) != want {
		t.Fatalf("expected %q, got %q", want, raw)
	}
}
