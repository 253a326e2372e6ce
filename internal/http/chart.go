package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bilancio/internal/services"
)

const minChartPoints = 2

var (
	balanceColor = drawing.ColorFromHex("1565c0")
	scoreColor   = drawing.ColorFromHex("2e7d32")
)

// historyChart plots balance (left axis) and health score (right axis, 0..100)
// per month, oldest first.
func historyChart(entries []services.HistoryEntry) (chart.Chart, error) {
	if len(entries) < minChartPoints {
		return chart.Chart{}, fmt.Errorf("need at least %d months, have %d", minChartPoints, len(entries))
	}

	n := len(entries)
	xs := make([]time.Time, n)
	balances := make([]float64, n)
	scores := make([]float64, n)
	for i, e := range entries {
		// entries are newest first
		j := n - 1 - i
		xs[j] = e.Period.Start()
		balances[j] = e.Balance.InexactFloat64()
		scores[j] = float64(e.HealthScore)
	}

	graph := chart.Chart{
		Width:  860,
		Height: 320,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 06"),
		},
		YAxis: chart.YAxis{
			Name: "Balance",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("€%.0f", f)
				}
				return ""
			},
			Range: balanceRange(balances),
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Health score",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Balance",
				XValues: xs,
				YValues: balances,
				Style:   chart.Style{StrokeColor: balanceColor, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Health score",
				YAxis:   chart.YAxisSecondary,
				XValues: xs,
				YValues: scores,
				Style:   chart.Style{StrokeColor: scoreColor, StrokeWidth: 2, StrokeDashArray: []float64{5, 3}},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph, nil
}

// balanceRange pads a flat series so the axis never has zero height.
func balanceRange(values []float64) chart.Range {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 100, Max: hi + 100}
	}
	pad := (hi - lo) * 0.1
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	entries, err := s.finance.History(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "Monthly record")
		return
	}
	graph, err := historyChart(entries)
	if err != nil {
		NotFoundError("Not enough history for a chart").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		s.writeError(w, r, fmt.Errorf("render history chart: %w", err), "Monthly record")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, no-cache")
	_, _ = buf.WriteTo(w)
}
