// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/seralin/tradepost-tui/internal/backend"
	"github.com/seralin/tradepost-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestSparklineWidth(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	line := Sparkline(values, 5)
	if got := utf8.RuneCountInString(line); got != 5 {
		t.Errorf("rune count = %d, want 5", got)
	}
}

func TestSparklineRisingEndsHigh(t *testing.T) {
	line := []rune(Sparkline([]float64{1, 2, 3, 4}, 4))
	if line[0] != '▁' {
		t.Errorf("first glyph = %c, want ▁", line[0])
	}
	if line[len(line)-1] != '█' {
		t.Errorf("last glyph = %c, want █", line[len(line)-1])
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	line := Sparkline([]float64{5, 5, 5}, 3)
	if strings.ContainsRune(line, '▁') || strings.ContainsRune(line, '█') {
		t.Errorf("flat series should render mid height, got %q", line)
	}
}

func TestSparklineEmpty(t *testing.T) {
	if got := Sparkline(nil, 10); got != "" {
		t.Errorf("Sparkline(nil) = %q, want empty", got)
	}
}

func TestFormatSilver(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{500, "500 silver"},
		{1500, "1,500 silver"},
		{1234567, "1,234,567 silver"},
	}
	for _, tt := range tests {
		if got := formatSilver(tt.in); got != tt.want {
			t.Errorf("formatSilver(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriceChartRenderHistory(t *testing.T) {
	chart := NewPriceChart(testTheme())
	points := []backend.HistoryPoint{
		{Timestamp: "2025-06-01T00:00:00", AvgPrice: 1000},
		{Timestamp: "2025-06-02T00:00:00", AvgPrice: 1200},
	}
	out := chart.RenderHistory("T4_BAG", points)
	if !strings.Contains(out, "T4_BAG") {
		t.Error("chart should contain title")
	}
	if !strings.Contains(out, "1,200 silver") {
		t.Errorf("chart should contain latest price, got %q", out)
	}
}

func TestPriceChartEmpty(t *testing.T) {
	chart := NewPriceChart(testTheme())
	if out := chart.RenderHistory("x", nil); !strings.Contains(out, "no price history") {
		t.Errorf("empty history = %q", out)
	}
}

func TestErrorBannerClassifies(t *testing.T) {
	banner := NewErrorBanner(testTheme())
	banner.Show(&backend.Error{Status: 502, Message: "ollama is down"})
	if !banner.Visible() {
		t.Fatal("banner should be visible after Show")
	}
	out := banner.View()
	if !strings.Contains(out, "Backend error") {
		t.Errorf("view = %q, want backend error title", out)
	}
	if !strings.Contains(out, "ollama is down") {
		t.Errorf("view should contain the error message")
	}

	banner.Dismiss()
	if banner.Visible() || banner.View() != "" {
		t.Error("dismissed banner should render nothing")
	}
}

func TestErrorBannerNoBaseURL(t *testing.T) {
	banner := NewErrorBanner(testTheme())
	banner.Show(backend.ErrNoBaseURL)
	if !strings.Contains(banner.View(), "Not configured") {
		t.Errorf("view = %q", banner.View())
	}
}

func TestErrorBannerNilIsNoop(t *testing.T) {
	banner := NewErrorBanner(testTheme())
	banner.Show(nil)
	if banner.Visible() {
		t.Error("nil error should not show the banner")
	}
}

func TestErrorBannerWrapped(t *testing.T) {
	banner := NewErrorBanner(testTheme())
	banner.Show(errors.New("dial tcp 127.0.0.1:8000: connection refused"))
	if !strings.Contains(banner.View(), "Backend unreachable") {
		t.Errorf("view = %q", banner.View())
	}
}

func TestHeaderCompact(t *testing.T) {
	header := NewHeader(testTheme())
	header.SetProvider("ollama", "llama3")
	out := header.ViewCompact()
	if !strings.Contains(out, "tradepost") {
		t.Error("compact header should contain app name")
	}
	if !strings.Contains(out, "ollama/llama3") {
		t.Errorf("compact header should show provider/model, got %q", out)
	}
}

func TestStatusBarShowsState(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(120)
	bar.SetStatus(StatusStreaming)
	bar.SetCounts(4, 2)
	out := bar.View()
	if !strings.Contains(out, "Streaming") {
		t.Errorf("bar should show status, got %q", out)
	}
	if !strings.Contains(out, "4 msgs") {
		t.Errorf("bar should show message count, got %q", out)
	}
	if !strings.Contains(out, "2 items pending") {
		t.Errorf("bar should show pending items, got %q", out)
	}
}

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusSending, "Sending..."},
		{StatusStreaming, "Streaming..."},
		{StatusResolving, "Resolving items..."},
		{StatusError, "Error"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
