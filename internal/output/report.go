// Package output renders statistics snapshots as JSON or YAML text.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/webtop-sh/webtop/internal/config"
	"github.com/webtop-sh/webtop/internal/stats"
)

// Report is the externally rendered view of a statistics snapshot. Field
// order is the display order for both JSON and YAML.
type Report struct {
	URL            string             `json:"URL" yaml:"URL"`
	Verb           string             `json:"Verb" yaml:"Verb"`
	SampleSize     int                `json:"Sample Size" yaml:"Sample Size"`
	SuccessRate    string             `json:"Success Rate" yaml:"Success Rate"`
	AverageLatency string             `json:"Average Latency" yaml:"Average Latency"`
	Latency        LatencyDetail      `json:"Latency" yaml:"Latency"`
	CountByReason  stats.ReasonCounts `json:"Count by Reason" yaml:"Count by Reason"`
}

// LatencyDetail breaks down response latencies.
type LatencyDetail struct {
	Min string `json:"Min" yaml:"Min"`
	Max string `json:"Max" yaml:"Max"`
	P50 string `json:"P50" yaml:"P50"`
	P90 string `json:"P90" yaml:"P90"`
	P99 string `json:"P99" yaml:"P99"`
}

// BuildReport formats a snapshot for display.
func BuildReport(snap stats.Snapshot) Report {
	counts := snap.CountByReason
	if counts == nil {
		counts = stats.ReasonCounts{}
	}
	return Report{
		URL:            snap.URL,
		Verb:           snap.Verb,
		SampleSize:     snap.SampleSize,
		SuccessRate:    fmt.Sprintf("%.2f%%", snap.SuccessRate),
		AverageLatency: fmt.Sprintf("%dms", snap.AverageLatency),
		Latency: LatencyDetail{
			Min: snap.MinLatency.String(),
			Max: snap.MaxLatency.String(),
			P50: snap.P50Latency.String(),
			P90: snap.P90Latency.String(),
			P99: snap.P99Latency.String(),
		},
		CountByReason: counts,
	}
}

// Render writes the report in the requested format.
func Render(w io.Writer, report Report, format config.OutputFormat) error {
	switch format {
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
}
