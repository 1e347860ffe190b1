// Package sample defines the outcome recorded for a single request attempt.
package sample

import (
	"strconv"
	"time"
)

// Outcome is the result of one request attempt. Exactly one variant is
// populated: a completed exchange carries a status code and latency, a
// failed attempt carries a classification label. Outcomes are immutable
// values so window snapshots can copy them without synchronization.
type Outcome struct {
	status  int
	latency time.Duration
	reason  string
}

// Response records a completed HTTP exchange, whatever the status code.
func Response(status int, latency time.Duration) Outcome {
	return Outcome{status: status, latency: latency}
}

// Failure records an attempt that produced no response. The error is
// classified by its most specific underlying cause.
func Failure(err error) Outcome {
	reason := Classify(err)
	if reason == "" {
		reason = "Error"
	}
	return Outcome{reason: reason}
}

// IsResponse reports whether the attempt completed an HTTP exchange.
func (o Outcome) IsResponse() bool { return o.reason == "" }

// IsSuccess reports whether the attempt completed with a 2xx or 3xx status.
func (o Outcome) IsSuccess() bool {
	return o.reason == "" && o.status >= 200 && o.status < 400
}

// StatusCode returns the response status, or 0 for failures.
func (o Outcome) StatusCode() int { return o.status }

// Latency returns the measured request latency, or 0 for failures.
func (o Outcome) Latency() time.Duration { return o.latency }

// Label returns the reason bucket for this outcome: "HTTP <code>" for
// responses, the failure classification otherwise.
func (o Outcome) Label() string {
	if o.reason != "" {
		return o.reason
	}
	return "HTTP " + strconv.Itoa(o.status)
}
