// Package stats computes point-in-time statistics from a window snapshot.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/webtop-sh/webtop/internal/sample"
)

// Snapshot is an immutable summary of one window snapshot. Instances are
// produced fresh on every aggregation and never mutated afterwards.
type Snapshot struct {
	URL        string
	Verb       string
	SampleSize int

	// SuccessRate is the percentage of outcomes with a 2xx/3xx status,
	// over the full sample. 0 when the sample is empty.
	SuccessRate float64

	// AverageLatency is the mean latency over completed responses in whole
	// milliseconds, rounded up. 0 when there are no responses.
	AverageLatency int64

	MinLatency time.Duration
	MaxLatency time.Duration
	P50Latency time.Duration
	P90Latency time.Duration
	P99Latency time.Duration

	CountByReason ReasonCounts
}

// Compute aggregates a window snapshot. It is a pure function: it never
// fails, and every division guards the empty case.
func Compute(url, verb string, outcomes []sample.Outcome) Snapshot {
	snap := Snapshot{
		URL:        url,
		Verb:       verb,
		SampleSize: len(outcomes),
	}

	// Track latencies from 1µs up to 60s with 3 significant figures.
	hist := hdrhistogram.New(1, 60_000_000, 3)

	var successes int
	var responses int64
	var sumLatencyMs int64
	for _, o := range outcomes {
		snap.CountByReason.inc(o.Label())
		if o.IsSuccess() {
			successes++
		}
		if !o.IsResponse() {
			continue
		}
		responses++
		sumLatencyMs += ceilMillis(o.Latency())

		us := o.Latency().Microseconds()
		if us < hist.LowestTrackableValue() {
			us = hist.LowestTrackableValue()
		}
		if us > hist.HighestTrackableValue() {
			us = hist.HighestTrackableValue()
		}
		_ = hist.RecordValue(us)

		if snap.MinLatency == 0 || o.Latency() < snap.MinLatency {
			snap.MinLatency = o.Latency()
		}
		if o.Latency() > snap.MaxLatency {
			snap.MaxLatency = o.Latency()
		}
	}

	if snap.SampleSize > 0 {
		snap.SuccessRate = float64(successes) / float64(snap.SampleSize) * 100
	}
	if responses > 0 {
		snap.AverageLatency = (sumLatencyMs + responses - 1) / responses
	}
	if hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P90Latency = time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond
		snap.P99Latency = time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond
	}

	return snap
}

// ceilMillis rounds a latency up to whole milliseconds.
func ceilMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}
