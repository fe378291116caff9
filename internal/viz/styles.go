package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	Good = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	Bad  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Row is one label/value line of a summary panel.
type Row struct {
	Label string
	Value string
}

func KeyValue(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// Summary renders rows under a title inside a rounded panel.
func Summary(title string, rows []Row) string {
	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(KeyValue(r.Label, r.Value))
	}
	return Panel.Render(b.String())
}

// MetricRows turns a metric map into rows sorted by name.
func MetricRows(metrics map[string]float64) []Row {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, Row{Label: name, Value: fmt.Sprintf("%.6g", metrics[name])})
	}
	return rows
}

// Ratio colours an estimated/configured ratio by how far it is from one.
func Ratio(r float64) string {
	s := fmt.Sprintf("%.3f", r)
	d := r - 1
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 0.05:
		return Good.Render(s)
	case d <= 0.2:
		return Warn.Render(s)
	default:
		return Bad.Render(s)
	}
}

// Separator draws a muted horizontal rule.
func Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return Subtle.Render(left + " ◆ " + right)
}

// Sparkline renders values as a row of block characters, sampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}
		result.WriteRune(chars[idx])
	}
	return result.String()
}
