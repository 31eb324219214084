// Package theme holds the color palettes of the fintrack dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the dashboard's color roles to concrete colors. Money roles are
// named for what they mean, so a palette can put income in blue if it likes.
type Theme struct {
	Name string

	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceHover  lipgloss.Color // inactive tabs
	SurfaceBright lipgloss.Color // selected rows
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color

	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Income       lipgloss.Color // also "on track"
	IncomeBright lipgloss.Color
	Expense      lipgloss.Color // also "over budget", errors
	Warning      lipgloss.Color
	Info         lipgloss.Color
	Highlight    lipgloss.Color
}

// Active is the palette every component renders with.
var Active = FlexokiDark

var FlexokiDark = Theme{
	Name:       "flexoki-dark",
	Background: "#100F0F", Surface: "#1C1B1A", SurfaceHover: "#282726", SurfaceBright: "#343331",
	Border: "#403E3C", BorderAccent: "#3AA99F",
	TextDim: "#575653", TextMuted: "#878580", TextPrimary: "#FFFCF0",
	Accent: "#3AA99F", AccentBright: "#5BC8BE",
	Income: "#879A39", IncomeBright: "#A3B859", Expense: "#D14D41",
	Warning: "#DA702C", Info: "#4385BE", Highlight: "#24837B",
}

var CatppuccinMocha = Theme{
	Name:       "catppuccin-mocha",
	Background: "#1E1E2E", Surface: "#313244", SurfaceHover: "#45475A", SurfaceBright: "#585B70",
	Border: "#585B70", BorderAccent: "#89B4FA",
	TextDim: "#6C7086", TextMuted: "#A6ADC8", TextPrimary: "#CDD6F4",
	Accent: "#89B4FA", AccentBright: "#B4D0FB",
	Income: "#A6E3A1", IncomeBright: "#C6F6C1", Expense: "#F38BA8",
	Warning: "#FAB387", Info: "#89B4FA", Highlight: "#94E2D5",
}

var TokyoNight = Theme{
	Name:       "tokyo-night",
	Background: "#1A1B26", Surface: "#24283B", SurfaceHover: "#343A52", SurfaceBright: "#414868",
	Border: "#565F89", BorderAccent: "#7AA2F7",
	TextDim: "#565F89", TextMuted: "#A9B1D6", TextPrimary: "#C0CAF5",
	Accent: "#7AA2F7", AccentBright: "#A9C1FF",
	Income: "#9ECE6A", IncomeBright: "#B9E87A", Expense: "#F7768E",
	Warning: "#FF9E64", Info: "#7AA2F7", Highlight: "#7DCFFF",
}

// Terminal sticks to the 16 ANSI colors, so it follows the terminal's own scheme.
var Terminal = Theme{
	Name:       "terminal",
	Background: "0", Surface: "0", SurfaceHover: "8", SurfaceBright: "8",
	Border: "8", BorderAccent: "6",
	TextDim: "8", TextMuted: "7", TextPrimary: "15",
	Accent: "6", AccentBright: "14",
	Income: "2", IncomeBright: "10", Expense: "1",
	Warning: "3", Info: "4", Highlight: "6",
}

// All lists the palettes in the order the settings tab cycles through them.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns the named palette, or FlexokiDark for unknown names.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive switches the palette every component renders with.
func SetActive(name string) {
	Active = ByName(name)
}

// Next returns the name of the palette after name, wrapping around.
func Next(name string) string {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)].Name
		}
	}
	return All[0].Name
}

// Amount picks the color for a signed amount: income-colored when positive.
func (t Theme) Amount(v float64) lipgloss.Color {
	if v < 0 {
		return t.Expense
	}
	return t.Income
}

// Budget picks the color for a budget at pct of its limit: over budget once
// past 100, warning from warnPct.
func (t Theme) Budget(pct, warnPct float64) lipgloss.Color {
	switch {
	case pct > 100:
		return t.Expense
	case pct >= warnPct:
		return t.Warning
	default:
		return t.Income
	}
}
