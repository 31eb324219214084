package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup: short card should be shorter than tall card")
	}

	joined := CardRow([]string{shortCard, tallCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	// The padding under the short card is the first thing on each line, so
	// those lines must start with a styled sequence rather than bare spaces.
	for i := shortLines; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "\x1b[") {
			t.Errorf("line %d starts unstyled: %q", i, lines[i])
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	joined := CardRow([]string{
		ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20),
		ContentCard("Short", "A", 30),
	})
	lines := strings.Split(joined, "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 81, 119, 180} {
		sum := 0
		for _, w := range LayoutRow(total, 4) {
			sum += w
		}
		if sum != total {
			t.Errorf("LayoutRow(%d, 4) sums to %d", total, sum)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	theme.SetActive("flexoki-dark")
	for active := range Tabs {
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1 // separators
		bar := RenderTabBar(active, want)
		if got := lipgloss.Width(bar); got != want {
			t.Errorf("active=%d: bar width %d, want %d", active, got, want)
		}
	}
}

func TestBudgetBarWithoutLimit(t *testing.T) {
	out := BudgetBar("Food", nil, 80, 10, 20)
	if !strings.Contains(out, "no budget set") {
		t.Fatalf("BudgetBar(nil) = %q", out)
	}
	pct := 150.0
	if out := BudgetBar("Food", &pct, 80, 10, 20); !strings.Contains(out, "150.0%") {
		t.Fatalf("BudgetBar(150) = %q", out)
	}
}

func TestChartTickStep(t *testing.T) {
	cases := map[float64]float64{0: 1, 10: 2, 100: 20, 730: 100, 1000: 200}
	for peak, want := range cases {
		if got := chartTickStep(peak); got != want {
			t.Errorf("chartTickStep(%v) = %v, want %v", peak, got, want)
		}
	}
}
