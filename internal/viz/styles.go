package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a terminal color scheme.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Border lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Good   lipgloss.Color
	Warn   lipgloss.Color
	Bad    lipgloss.Color
}

var (
	ThemeDark = Theme{
		Name:   "dark",
		Accent: lipgloss.Color("86"),
		Border: lipgloss.Color("240"),
		Text:   lipgloss.Color("252"),
		Muted:  lipgloss.Color("245"),
		Good:   lipgloss.Color("#00ff88"),
		Warn:   lipgloss.Color("#ffaa00"),
		Bad:    lipgloss.Color("#ff4444"),
	}

	ThemeLight = Theme{
		Name:   "light",
		Accent: lipgloss.Color("#005f87"),
		Border: lipgloss.Color("250"),
		Text:   lipgloss.Color("235"),
		Muted:  lipgloss.Color("242"),
		Good:   lipgloss.Color("#008700"),
		Warn:   lipgloss.Color("#af5f00"),
		Bad:    lipgloss.Color("#d70000"),
	}

	ThemeMono = Theme{
		Name:   "mono",
		Accent: lipgloss.Color("15"),
		Border: lipgloss.Color("8"),
		Text:   lipgloss.Color("7"),
		Muted:  lipgloss.Color("8"),
		Good:   lipgloss.Color("15"),
		Warn:   lipgloss.Color("7"),
		Bad:    lipgloss.Color("15"),
	}

	Themes = []Theme{ThemeDark, ThemeLight, ThemeMono}
)

// GetTheme returns the theme called name, or the dark theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDark
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDark
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Panel  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
	Hint   lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Label: lipgloss.NewStyle().Foreground(t.Muted).Width(16),
		Value: lipgloss.NewStyle().Foreground(t.Text),
		Good:  lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Bad:   lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		Hint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}

// Spinner returns one frame of a braille spinner.
func Spinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := max(0, min(int(fraction*float64(width)), width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return s.Bad.Render(bar)
	case fraction > 0.4:
		return s.Warn.Render(bar)
	}
	return s.Good.Render(bar)
}

// Sparkline draws the last width values, scaled to their own range.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	ticks := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		i := int((v - lo) / span * float64(len(ticks)-1))
		sb.WriteRune(ticks[max(0, min(i, len(ticks)-1))])
	}
	return sb.String()
}
