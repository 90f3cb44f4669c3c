// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

// =============================================================================
// PRICE CHART
// =============================================================================

// blockRamp maps a normalized value to a partial-block glyph, low to high.
var blockRamp = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a single line of block glyphs. Flat series
// render at mid height so a constant price does not look like a crash.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	values = resample(values, width)

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		idx := len(blockRamp) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blockRamp)-1))
		}
		b.WriteRune(blockRamp[idx])
	}
	return b.String()
}

// resample reduces or stretches values to exactly width samples by
// averaging each bucket.
func resample(values []float64, width int) []float64 {
	if len(values) == width {
		return values
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// PriceChart renders a titled sparkline for an item's price history with
// the latest price and trend direction.
type PriceChart struct {
	theme *styles.Theme
	width int
}

// NewPriceChart creates a chart renderer for the given theme.
func NewPriceChart(theme *styles.Theme) PriceChart {
	return PriceChart{theme: theme, width: 40}
}

// SetWidth adjusts the sparkline width.
func (c *PriceChart) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	c.width = width
}

// RenderHistory draws an item price series oldest to newest.
func (c PriceChart) RenderHistory(title string, points []backend.HistoryPoint) string {
	if len(points) == 0 {
		return c.theme.ChartAxis.Render("no price history")
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.AvgPrice
	}
	return c.render(title, values, formatSilver(values[len(values)-1]))
}

// RenderGold draws the gold price series oldest to newest.
func (c PriceChart) RenderGold(points []backend.GoldPoint) string {
	if len(points) == 0 {
		return c.theme.ChartAxis.Render("no gold history")
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Price)
	}
	latest := fmt.Sprintf("%d silver", points[len(points)-1].Price)
	return c.render("Gold price", values, latest)
}

func (c PriceChart) render(title string, values []float64, latest string) string {
	line := Sparkline(values, c.width)

	style := c.theme.ChartLine
	arrow := ""
	if len(values) > 1 {
		switch {
		case values[len(values)-1] > values[0]:
			style = c.theme.ChartUp
			arrow = " ↑"
		case values[len(values)-1] < values[0]:
			style = c.theme.ChartDown
			arrow = " ↓"
		}
	}

	var b strings.Builder
	b.WriteString(c.theme.ChartTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(style.Render(line))
	b.WriteString("\n")
	b.WriteString(c.theme.ChartAxis.Render(latest + arrow))
	return b.String()
}

// formatSilver renders a silver amount with thousands separators.
func formatSilver(v float64) string {
	n := int64(v)
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s + " silver"
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",") + " silver"
}
