// Package chart renders report data as images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when a line cannot be drawn.
var ErrTooFewPoints = errors.New("need at least 2 data points")

// RenderTrend draws monthly income (green) and expenses (red) as a PNG.
func RenderTrend(points []core.TrendPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(points))
	}

	xValues := make([]time.Time, len(points))
	incomeY := make([]float64, len(points))
	expenseY := make([]float64, len(points))
	maxY := 0.0

	for i, p := range points {
		month, err := time.Parse("2006-01", p.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", p.Month, err)
		}
		xValues[i] = month
		incomeY[i] = p.Income.Decimal().InexactFloat64()
		expenseY[i] = p.Expenses.Decimal().InexactFloat64()
		maxY = max(maxY, incomeY[i], expenseY[i])
	}

	incomeSeries := chart.TimeSeries{
		Name: "Income",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: incomeY,
	}

	expenseSeries := chart.TimeSeries{
		Name: "Expenses",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("dc2626"),
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: expenseY,
	}

	graph := chart.Chart{
		Title:  "Monthly Trend",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			// a flat all-zero series has no natural range
			Range: &chart.ContinuousRange{Min: 0, Max: max(maxY*1.1, 1)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			incomeSeries,
			expenseSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
