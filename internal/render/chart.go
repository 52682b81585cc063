package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"marketintel/internal/ranking"
)

// ErrNoBars is returned when there is nothing to chart.
var ErrNoBars = errors.New("no impact bars to chart")

// RenderImpactPNG renders ranked impact bars as a PNG bar chart. Bars keep
// their ranked order; positive impacts are green and negative ones red.
// Returns raw PNG bytes.
func RenderImpactPNG(title string, bars []ranking.Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		color := drawing.ColorFromHex("dc2626") // red-600
		if b.Positive {
			color = drawing.ColorFromHex("16a34a") // green-600
		}
		values = append(values, chart.Value{
			Label: b.Feature,
			Value: b.Shap,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
				StrokeWidth: 1,
			},
		})
	}

	top := ranking.MaxMagnitude(bars)
	if top == 0 {
		top = 1
	}
	top *= 1.1

	graph := chart.BarChart{
		Title:  title,
		Width:  1000,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth:     60,
		BarSpacing:   30,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -top, Max: top},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
