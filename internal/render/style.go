package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style carries everything a renderer needs: colours, text styles and plot
// sizes. It is built once at startup and passed explicitly; renderers never
// mutate it.
type Style struct {
	Theme     Theme
	Width     int // canvas width in cells
	Height    int // canvas height in cells
	SVGWidth  int
	SVGHeight int

	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Muted lipgloss.Style
	Warn  lipgloss.Style
	Plot  lipgloss.Style
	Panel lipgloss.Style
}

// NewStyle derives the text styles from a theme.
func NewStyle(theme Theme, width, height, svgWidth, svgHeight int) Style {
	return Style{
		Theme:     theme,
		Width:     width,
		Height:    height,
		SVGWidth:  svgWidth,
		SVGHeight: svgHeight,

		Title: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Label: lipgloss.NewStyle().Foreground(theme.Muted),
		Value: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(theme.Warning),
		Plot:  lipgloss.NewStyle().Foreground(theme.Primary),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Muted).
			Padding(0, 1),
	}
}

// DefaultStyle is the cyberpunk theme at 60x20 cells and 640x480 SVG.
func DefaultStyle() Style {
	return NewStyle(ThemeCyberpunk, 60, 20, 640, 480)
}

// Header renders a bold title with an underline rule.
func (s Style) Header(title string) string {
	return s.Title.Render(title) + "\n" + s.Muted.Render(strings.Repeat("─", lipgloss.Width(title)))
}

// KV renders "label: value" lines with aligned labels.
func (s Style) KV(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		if w := lipgloss.Width(p[0]); w > width {
			width = w
		}
	}
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		pad := strings.Repeat(" ", width-lipgloss.Width(p[0]))
		lines[i] = s.Label.Render(p[0]+":") + pad + " " + s.Value.Render(p[1])
	}
	return strings.Join(lines, "\n")
}

// Box wraps content in the panel border with a title line.
func (s Style) Box(title, content string) string {
	return s.Panel.Render(s.Title.Render(title) + "\n" + content)
}

// Sparkline renders values as a one-line bar chart of the given width.
func (s Style) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(len(values)/width, 1)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return s.Plot.Render(b.String())
}
