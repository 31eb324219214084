package tui

import (
	"testing"

	"github.com/theirongolddev/fintrack/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := tabWidthForTest(tab.Name, i == active, tab.KeyPos < 0)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("active=%d: x past the last tab -> %d, want -1", active, got)
		}
	}
}

func tabWidthForTest(name string, active, keyOutsideName bool) int {
	w := len(name) + 2 // horizontal padding in tab renderer
	if !active && keyOutsideName {
		w += 3 // inactive Settings adds "[x]"
	}
	return w
}
