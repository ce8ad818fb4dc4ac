package render

import (
	"fmt"
	"image"

	"golang.org/x/image/font"

	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/layout"
	"github.com/rileyhilliard/relaystat/internal/logger"
)

// Screen draws on a landscape canvas and rotates each frame into the
// driver's native orientation before flushing.
type Screen struct {
	driver   Driver
	rotation int
	face     font.Face
	log      logger.Logger
}

// ScreenOptions configures NewScreen.
type ScreenOptions struct {
	// Rotation in degrees counter-clockwise from canvas to panel.
	Rotation int
	FontPath string
	FontSize float64
	Log      logger.Logger
}

// NewScreen wraps driver. A font that fails to load is logged and replaced
// by FallbackFace; a blank display is worse than a plain font.
func NewScreen(driver Driver, opts ScreenOptions) *Screen {
	log := logger.OrNoop(opts.Log)
	face, err := LoadFace(opts.FontPath, opts.FontSize)
	if err != nil {
		log.Warn("Using built-in font: %v", err)
		face = FallbackFace
	}
	return &Screen{
		driver:   driver,
		rotation: opts.Rotation,
		face:     face,
		log:      log,
	}
}

// Init initializes the driver.
func (s *Screen) Init() error {
	if err := s.driver.Init(); err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay,
			"Display driver failed to initialize",
			"Check display.driver and display.device in the config, and that relaystat can open the device")
	}
	w, h := s.Canvas()
	s.log.Debug("display ready: canvas %dx%d, rotation %d", w, h, s.rotation)
	return nil
}

// Canvas returns the drawing size, which is the panel size with width and
// height swapped for quarter-turn rotations.
func (s *Screen) Canvas() (width, height int) {
	w, h := s.driver.Dimensions()
	if s.rotation == 90 || s.rotation == 270 {
		return h, w
	}
	return w, h
}

// Measurer measures text in the screen's font.
func (s *Screen) Measurer() layout.Measurer {
	return FaceMeasurer{Face: s.face}
}

// Show paints plan and flushes it.
func (s *Screen) Show(plan layout.Plan) error {
	img := s.driver.NewImage(plan.Width, plan.Height)
	Paint(img, plan, s.face)
	return s.flush(img)
}

// ShowImage flushes a canvas-sized image, such as the splash.
func (s *Screen) ShowImage(img image.Image) error {
	return s.flush(img)
}

func (s *Screen) flush(img image.Image) error {
	if err := s.driver.Display(Rotate(img, s.rotation)); err != nil {
		return fmt.Errorf("display frame: %w", err)
	}
	return nil
}

// Close releases the driver.
func (s *Screen) Close() error {
	return s.driver.Close()
}
