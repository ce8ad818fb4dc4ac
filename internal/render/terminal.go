package render

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// brailleBase is the empty braille pattern (U+2800).
const brailleBase = '⠀'

// brailleDots maps [row][col] within a 2x4 cell to the braille dot bit.
var brailleDots = [4][2]uint8{
	{0, 3}, // dots 1 and 4
	{1, 4}, // dots 2 and 5
	{2, 5}, // dots 3 and 6
	{6, 7}, // dots 7 and 8
}

var terminalFrameStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("8"))

// TerminalDriver previews the panel in a terminal, one braille character
// per 2x4 pixel block.
type TerminalDriver struct {
	out           io.Writer
	width, height int
	clear         bool
}

// NewTerminalDriver emulates a width x height panel on out.
func NewTerminalDriver(out io.Writer, width, height int) *TerminalDriver {
	return &TerminalDriver{out: out, width: width, height: height}
}

// Init clears the screen between frames only when out is a terminal.
func (d *TerminalDriver) Init() error {
	if d.width <= 0 || d.height <= 0 {
		return fmt.Errorf("invalid terminal panel size %dx%d", d.width, d.height)
	}
	if f, ok := d.out.(*os.File); ok {
		d.clear = term.IsTerminal(int(f.Fd()))
	}
	return nil
}

// Dimensions returns the emulated panel size.
func (d *TerminalDriver) Dimensions() (int, int) {
	return d.width, d.height
}

// NewImage returns a blank frame.
func (d *TerminalDriver) NewImage(width, height int) draw.Image {
	return newMonoImage(width, height)
}

// Display writes img as a bordered braille block.
func (d *TerminalDriver) Display(img image.Image) error {
	if d.clear {
		out := termenv.NewOutput(d.out)
		out.ClearScreen()
	}
	_, err := fmt.Fprintln(d.out, terminalFrameStyle.Render(Braille(img)))
	return err
}

// Close is a no-op; the terminal is left showing the last frame.
func (d *TerminalDriver) Close() error {
	return nil
}

// Braille encodes img as rows of braille characters, lighting a dot for
// every dark pixel.
func Braille(img image.Image) string {
	b := img.Bounds()
	cols := (b.Dx() + 1) / 2
	rows := (b.Dy() + 3) / 4

	var sb strings.Builder
	for cy := 0; cy < rows; cy++ {
		if cy > 0 {
			sb.WriteByte('\n')
		}
		for cx := 0; cx < cols; cx++ {
			cell := rune(brailleBase)
			for r := 0; r < 4; r++ {
				for c := 0; c < 2; c++ {
					x, y := b.Min.X+cx*2+c, b.Min.Y+cy*4+r
					if x < b.Max.X && y < b.Max.Y && isInk(img.At(x, y)) {
						cell |= 1 << brailleDots[r][c]
					}
				}
			}
			sb.WriteRune(cell)
		}
	}
	return sb.String()
}
