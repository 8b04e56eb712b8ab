package bettingservice

import (
	"bytes"
	"context"
	"fmt"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const defaultChartLimit = 10

// ChartPalette holds the colors used for rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Accent     drawing.Color
	TextColor  drawing.Color
}

// DefaultChartPalette is a dark theme with a red bar and gold for the leader.
func DefaultChartPalette() ChartPalette {
	return ChartPalette{
		Background: drawing.ColorFromHex("15151e"),
		Bar:        drawing.ColorFromHex("e10600"),
		Accent:     drawing.ColorFromHex("d4af37"),
		TextColor:  drawing.ColorFromHex("f0f0f0"),
	}
}

// LeaderboardChart renders the top of the leaderboard as a PNG bar chart.
func (s *BettingService) LeaderboardChart(ctx context.Context, limit int) ([]byte, error) {
	entries, err := s.GetLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultChartLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return GenerateLeaderboardChart(entries, DefaultChartPalette())
}

// GenerateLeaderboardChart draws one bar per entry, labelled with the
// user's name and star count.
func GenerateLeaderboardChart(entries []bettingdomain.LeaderboardEntry, palette ChartPalette) ([]byte, error) {
	total := 0
	for _, e := range entries {
		total += e.Points
	}
	if len(entries) == 0 || total == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, len(entries))
	for i, e := range entries {
		fill := palette.Bar
		if e.Position == 1 {
			fill = palette.Accent
		}
		bars[i] = chart.Value{
			Label: chartLabel(e),
			Value: float64(e.Points),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
			},
		}
	}

	graph := chart.BarChart{
		Title:  "Leaderboard",
		Width:  120*len(bars) + 160,
		Height: 480,
		TitleStyle: chart.Style{
			FontColor: palette.TextColor,
		},
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Name: "Points",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		BarWidth:   80,
		BarSpacing: 40,
		Bars:       bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render leaderboard chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func chartLabel(e bettingdomain.LeaderboardEntry) string {
	name := e.DisplayName
	if name == "" {
		name = e.UserID.String()[:8]
	}
	if e.Stars > 0 {
		return fmt.Sprintf("%s (%d*)", name, e.Stars)
	}
	return name
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No points scored yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis: chart.YAxis{Style: chart.Style{Hidden: true}},
		Series: []chart.Series{
			// go-chart refuses to render without a visible series.
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					FillColor:   drawing.ColorTransparent,
				},
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
