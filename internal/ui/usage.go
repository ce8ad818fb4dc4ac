package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Usage bar block characters.
const (
	usageFilled = '█'
	usageEmpty  = '░'
)

// RenderUsageBar draws accounting usage as [████░░░░] 42%.
//
// The bar is clamped to width but the percentage is printed as given, so a
// relay over its quota reads "150%" next to a full bar. label replaces the
// numeric percentage when non-empty (the display prints "<1%" for small
// non-zero usage).
func RenderUsageBar(percent float64, width int, label string) string {
	if width <= 0 {
		return ""
	}

	fill := percent
	if fill < 0 {
		fill = 0
	} else if fill > 100 {
		fill = 100
	}
	filledCount := int((fill / 100.0) * float64(width))

	var sb strings.Builder
	sb.Grow(width + 2)
	sb.WriteRune('[')
	sb.WriteString(strings.Repeat(string(usageFilled), filledCount))
	sb.WriteString(strings.Repeat(string(usageEmpty), width-filledCount))
	sb.WriteRune(']')

	if label == "" {
		label = fmt.Sprintf("%.0f%%", percent)
	}

	style := lipgloss.NewStyle().Foreground(thresholdColor(percent))
	return style.Render(sb.String()) + " " + label
}

// thresholdColor picks green below 60%, yellow below 80%, red above.
func thresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
