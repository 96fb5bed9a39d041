// Package charts renders PNG bar charts for course analytics.
package charts

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	barWidth      = 48
	barSpacing    = 24
)

// Bar describes one bar chart. Labels and Values are parallel.
type Bar struct {
	Title  string
	YLabel string
	Max    float64
	Labels []string
	Values []float64
}

// Render draws b as a PNG.
func Render(b Bar) ([]byte, error) {
	if len(b.Values) == 0 {
		return nil, fmt.Errorf("chart %q has no values", b.Title)
	}
	if len(b.Labels) != len(b.Values) {
		return nil, fmt.Errorf("chart %q has %d labels for %d values", b.Title, len(b.Labels), len(b.Values))
	}
	ceiling := b.Max
	if ceiling <= 0 {
		ceiling = 100
	}
	bars := make([]chart.Value, 0, len(b.Values))
	for i, value := range b.Values {
		bars = append(bars, chart.Value{Label: b.Labels[i], Value: clamp(value, ceiling)})
	}
	width := defaultWidth
	if need := len(bars)*(barWidth+barSpacing) + 160; need > width {
		width = need
	}
	graph := chart.BarChart{
		Title:      b.Title,
		Width:      width,
		Height:     defaultHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:  b.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart %q: %w", b.Title, err)
	}
	return buf.Bytes(), nil
}

func clamp(value, ceiling float64) float64 {
	if value < 0 {
		return 0
	}
	if value > ceiling {
		return ceiling
	}
	return value
}
