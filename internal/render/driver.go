// Package render paints display plans onto driver-provided images and
// flushes them to a display device.
//
// A Driver is the narrow capability the rest of the program sees: init,
// dimensions, a fresh drawable image, and a flush. Screen sits on top of a
// Driver and adds fonts, rotation and the plan painter.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"strings"
)

// Driver flushes whole frames to a physical or emulated display.
type Driver interface {
	// Init prepares the device. Failure here is fatal to the program.
	Init() error
	// Dimensions returns the native panel size in pixels. Only valid
	// after Init.
	Dimensions() (width, height int)
	// NewImage returns a blank drawable surface of the given size.
	NewImage(width, height int) draw.Image
	// Display flushes img, which has the native panel dimensions.
	Display(img image.Image) error
	Close() error
}

// Driver names accepted by NewDriver.
const (
	DriverTerminal = "terminal"
	DriverFBDev    = "fbdev"
)

// DriverOptions configures NewDriver.
type DriverOptions struct {
	// Device is the framebuffer device path for fbdev.
	Device string
	// Width and Height size the terminal preview panel.
	Width, Height int
	// Out receives terminal frames. Defaults to os.Stdout.
	Out io.Writer
}

// NewDriver builds the named driver.
func NewDriver(name string, opts DriverOptions) (Driver, error) {
	switch strings.ToLower(name) {
	case DriverTerminal, "":
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		return NewTerminalDriver(out, opts.Width, opts.Height), nil
	case DriverFBDev:
		return NewFBDevDriver(opts.Device), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q (want %s or %s)", name, DriverTerminal, DriverFBDev)
	}
}

// newMonoImage returns a white grayscale image. Every pixel the painter
// touches is either black or white.
func newMonoImage(width, height int) draw.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// isInk reports whether a pixel should be lit on a monochrome panel.
func isInk(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}
