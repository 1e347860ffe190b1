// Package dashboard renders a live terminal view of the rolling statistics.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/webtop-sh/webtop/internal/stats"
)

// Dashboard polls a snapshot source on its own cadence and paints a termui
// grid. It never blocks the request workers: each update takes one snapshot.
type Dashboard struct {
	source       func() stats.Snapshot
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup

	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	successGauge   *widgets.Gauge
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	reasonList     *widgets.List
	latencyHistory []float64
	startTime      time.Time
}

// New creates a Dashboard. shutdownFunc is invoked when the user quits with
// q or Ctrl-C.
func New(source func() stats.Snapshot, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		source:         source,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Average Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Min: 0ms\nAvg: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms\nMax: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.successGauge = widgets.NewGauge()
	d.successGauge.Title = "Success Rate"
	d.successGauge.Percent = 0
	d.successGauge.BarColor = ui.ColorGreen
	d.successGauge.BorderStyle.Fg = ui.ColorCyan
	d.successGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.reasonList = widgets.NewList()
	d.reasonList.Title = "Count by Reason"
	d.reasonList.Rows = []string{"Awaiting data"}
	d.reasonList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.reasonList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "webtop"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.successGauge),
		),
		ui.NewRow(0.32,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.32,
			ui.NewCol(1.0, d.reasonList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Wait for Stop() to cancel the context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the latest snapshot.
func (d *Dashboard) update() {
	snap := d.source()

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s %s\nSample Size: %d\nElapsed: %s",
		snap.Verb, snap.URL, snap.SampleSize, time.Since(d.startTime).Round(time.Second),
	)

	d.successGauge.Percent = clampPercent(snap.SuccessRate)
	d.successGauge.Label = fmt.Sprintf("%.2f%%", snap.SuccessRate)

	if snap.AverageLatency > 0 {
		d.latencyHistory = append(d.latencyHistory, float64(snap.AverageLatency))
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf("Average Latency: %dms", snap.AverageLatency)
	}

	d.latencyPara.Text = fmt.Sprintf(
		"Min: %s\nAvg: %dms\nP50: %s\nP90: %s\nP99: %s\nMax: %s",
		snap.MinLatency, snap.AverageLatency,
		snap.P50Latency, snap.P90Latency, snap.P99Latency,
		snap.MaxLatency,
	)

	d.reasonList.Rows = reasonRows(snap.CountByReason)
}

func (d *Dashboard) render() {
	ui.Render(d.grid)
}

func reasonRows(counts stats.ReasonCounts) []string {
	if len(counts) == 0 {
		return []string{"Awaiting data"}
	}
	rows := make([]string, 0, len(counts))
	for _, b := range counts {
		rows = append(rows, fmt.Sprintf("%s: %d", b.Reason, b.Count))
	}
	return rows
}

func clampPercent(rate float64) int {
	p := int(rate)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
