package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/phillip-england/turntime/internal/leaderboard"
)

const (
	chartHeight      = 480
	chartMinWidth    = 640
	chartWidthPerBar = 90
)

// Chart draws the leaderboard as a bar chart, one bar per server plus the
// store average, using the same fills as the table.
func Chart(board leaderboard.Board, title string, th Thresholds, palette Palette) ([]byte, error) {
	if len(board.Rows) == 0 {
		return nil, errors.New("chart: leaderboard has no rows")
	}

	bars := make([]chart.Value, 0, len(board.Rows))
	maxValue := 0.0
	for _, row := range board.Rows {
		tone := Classify(row.TurnTime, th)
		if row.IsAverage() {
			tone = ToneAverage
		}
		value := row.TurnTime
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		maxValue = math.Max(maxValue, value)
		bars = append(bars, chart.Value{
			Label: row.Server,
			Value: value,
			Style: chart.Style{
				FillColor:   chartColor(palette.Fill(tone)),
				StrokeColor: chartColor(palette.Border),
				StrokeWidth: 1,
			},
		})
	}

	width := chartWidthPerBar*len(bars) + 160
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  width,
		Height: chartHeight,
		Background: chart.Style{
			Padding:   chart.Box{Top: 56, Left: 20, Right: 20, Bottom: 60},
			FillColor: chartColor(palette.Default),
		},
		BarWidth: 48,
		YAxis: chart.YAxis{
			Name: "Minutes",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: math.Ceil(maxValue*1.15) + 1,
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func chartColor(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
