// Package layout turns a status snapshot into the fixed set of text lines
// and the usage bar shown on the display.
//
// Layout is a pure transform. It knows nothing about fonts beyond the
// Measurer it is handed, so tests can use fixed-advance measurement while
// the renderer measures with the real face.
package layout

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/rileyhilliard/relaystat/internal/status"
	"github.com/rileyhilliard/relaystat/internal/units"
	"github.com/rileyhilliard/relaystat/internal/util"
)

// Geometry, in pixels.
const (
	Margin      = 5
	LineHeight  = 15
	BarGap      = 5
	TrackHeight = 10
)

// Ellipsis marks a truncated line.
const Ellipsis = "..."

// Measurer reports the rendered pixel width of text in the active font.
type Measurer interface {
	Measure(text string) int
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text string) int

// Measure calls f(text).
func (f MeasureFunc) Measure(text string) int { return f(text) }

// Line is one text row. Y is the top of the row.
type Line struct {
	Text string
	X, Y int
}

// Bar is the accounting usage bar: an outlined track TotalWidth wide with
// the first FilledWidth pixels filled.
type Bar struct {
	X, Y        int
	FilledWidth int
	TotalWidth  int
	TrackHeight int
}

// Plan is everything the renderer paints for one frame.
type Plan struct {
	Width, Height int
	Lines         []Line
	// Bar is nil when there is no quota to measure usage against or the
	// traffic counters are unavailable.
	Bar *Bar
}

// Layout computes the display plan for s on a width x height canvas.
func Layout(s *status.Snapshot, width, height int, m Measurer) Plan {
	maxWidth := width - 2*Margin

	texts := Lines(s)
	plan := Plan{Width: width, Height: height, Lines: make([]Line, 0, len(texts))}

	y := Margin
	for _, text := range texts {
		plan.Lines = append(plan.Lines, Line{
			Text: Truncate(text, maxWidth, m),
			X:    Margin,
			Y:    y,
		})
		y += LineHeight
	}

	current, known := s.Traffic()
	quota := s.QuotaBytes()
	if quota > 0 && known {
		plan.Bar = &Bar{
			X:           Margin,
			Y:           y + BarGap,
			FilledWidth: FilledWidth(current, quota, maxWidth),
			TotalWidth:  maxWidth,
			TrackHeight: TrackHeight,
		}
	}
	return plan
}

// Lines returns the six status lines, untruncated, in display order.
func Lines(s *status.Snapshot) []string {
	nickname := util.OrDefault(s.Nickname, status.Unavailable)

	uptime := "Uptime: " + status.Unavailable
	if s.Uptime.OK {
		uptime = fmt.Sprintf("Uptime: %s hours", s.UptimeHours())
	}

	flags := status.Unavailable
	if f, ok := s.Flags.Get(); ok {
		flags = util.JoinOrNone(f)
	}

	return []string{
		"Tor: " + textOrUnavailable(s.Version),
		"Nickname: " + nickname,
		"Fingerprint: " + textOrUnavailable(s.Fingerprint),
		uptime,
		"Flags: " + flags,
		AccountingLine(s),
	}
}

// AccountingLine renders "Accounting: <current> / <quota> (<percent>)".
// With a quota but no counters the percent is N/A as well.
func AccountingLine(s *status.Snapshot) string {
	total, known := s.Traffic()
	current := status.Unavailable
	if known {
		current = units.BytesToHuman(total)
	}
	pct := FormatPercent(Percentage(total, s.QuotaBytes()))
	if !known && s.QuotaBytes() > 0 {
		pct = status.Unavailable
	}
	quota := status.Unavailable
	if q, ok := s.Quota.Get(); ok {
		quota = units.BytesToHuman(q)
	}
	return fmt.Sprintf("Accounting: %s / %s (%s)", current, quota, pct)
}

func textOrUnavailable(f status.Field[string]) string {
	if v, ok := f.Get(); ok {
		return v
	}
	return status.Unavailable
}

// Percentage is current as a percentage of quota, 0 when there is no quota.
// It is not clamped: a relay over its quota reports more than 100.
func Percentage(current, quota int64) float64 {
	if quota <= 0 {
		return 0
	}
	return float64(current) / float64(quota) * 100
}

// FormatPercent shows "<1%" for small nonzero usage so it doesn't read as
// idle, and the floored whole percent otherwise.
func FormatPercent(p float64) string {
	if p > 0 && p < 1 {
		return "<1%"
	}
	return fmt.Sprintf("%d%%", int64(math.Floor(p)))
}

// FilledWidth scales current/quota onto total pixels, clamped to [0, total].
func FilledWidth(current, quota int64, total int) int {
	if quota <= 0 || total <= 0 {
		return 0
	}
	w := int(math.Floor(float64(current) / float64(quota) * float64(total)))
	if w < 0 {
		return 0
	}
	if w > total {
		return total
	}
	return w
}

// Truncate shortens text until it measures at most maxWidth, dropping one
// rune at a time from the end and appending Ellipsis. Text that already
// fits is returned unchanged. Returns "" if not even the ellipsis fits.
func Truncate(text string, maxWidth int, m Measurer) string {
	if m.Measure(text) <= maxWidth {
		return text
	}
	for text != "" {
		_, size := utf8.DecodeLastRuneInString(text)
		text = text[:len(text)-size]
		if m.Measure(text+Ellipsis) <= maxWidth {
			return text + Ellipsis
		}
	}
	return ""
}
