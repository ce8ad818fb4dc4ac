package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/layout"
	"github.com/rileyhilliard/relaystat/internal/logger"
	rtesting "github.com/rileyhilliard/relaystat/internal/render/testing"
	"github.com/rileyhilliard/relaystat/internal/status"
)

func blankCanvas(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func inkAt(img image.Image, x, y int) bool {
	return isInk(img.At(x, y))
}

func hasInk(img image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if inkAt(img, x, y) {
				return true
			}
		}
	}
	return false
}

func writePNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "splash.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestPaint_Bar(t *testing.T) {
	img := blankCanvas(250, 122)
	plan := layout.Plan{
		Width: 250, Height: 122,
		Bar: &layout.Bar{X: 5, Y: 100, FilledWidth: 102, TotalWidth: 240, TrackHeight: 10},
	}

	Paint(img, plan, FallbackFace)

	assert.True(t, inkAt(img, 5, 105), "filled start")
	assert.True(t, inkAt(img, 107, 105), "filled end is inclusive")
	assert.False(t, inkAt(img, 150, 105), "unfilled track interior")
	assert.True(t, inkAt(img, 150, 100), "top outline")
	assert.True(t, inkAt(img, 150, 110), "bottom outline")
	assert.True(t, inkAt(img, 245, 105), "right outline")
	assert.False(t, inkAt(img, 246, 105), "outside the track")
	assert.False(t, inkAt(img, 150, 111), "below the track")
	assert.False(t, hasInk(img, image.Rect(0, 0, 250, 100)), "nothing above the bar")
}

func TestPaint_NoBar(t *testing.T) {
	img := blankCanvas(250, 122)

	Paint(img, layout.Plan{Width: 250, Height: 122}, FallbackFace)

	assert.False(t, hasInk(img, img.Bounds()))
}

func TestPaint_Text(t *testing.T) {
	img := blankCanvas(250, 122)
	plan := layout.Plan{
		Width: 250, Height: 122,
		Lines: []layout.Line{{Text: "Tor: 0.4.8", X: 5, Y: 5}},
	}

	Paint(img, plan, FallbackFace)

	assert.True(t, hasInk(img, image.Rect(5, 5, 245, 20)), "text is drawn in its row")
	assert.False(t, hasInk(img, image.Rect(0, 20, 250, 122)), "text stays in its row")
}

func TestFaceMeasurer(t *testing.T) {
	m := FaceMeasurer{Face: FallbackFace}

	assert.Equal(t, 0, m.Measure(""))
	assert.Equal(t, 21, m.Measure("abc"))
}

func TestLoadFace(t *testing.T) {
	face, err := LoadFace("", 10)
	require.NoError(t, err)
	assert.Equal(t, FallbackFace, face)

	_, err = LoadFace(filepath.Join(t.TempDir(), "missing.ttf"), 10)
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.ttf")
	require.NoError(t, os.WriteFile(bogus, []byte("not a font"), 0o600))
	_, err = LoadFace(bogus, 10)
	assert.Error(t, err)
}

func TestScreen_RotatesToPanel(t *testing.T) {
	driver := rtesting.NewFakeDriver(122, 250)
	screen := NewScreen(driver, ScreenOptions{Rotation: 90})
	require.NoError(t, screen.Init())

	w, h := screen.Canvas()
	assert.Equal(t, 250, w)
	assert.Equal(t, 122, h)

	plan := layout.Layout(&status.Snapshot{}, w, h, screen.Measurer())
	require.NoError(t, screen.Show(plan))

	frame := driver.LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 122, 250), frame.Bounds())
}

func TestScreen_NoRotation(t *testing.T) {
	driver := rtesting.NewFakeDriver(250, 122)
	screen := NewScreen(driver, ScreenOptions{})
	require.NoError(t, screen.Init())

	require.NoError(t, screen.ShowImage(blankCanvas(250, 122)))
	assert.Equal(t, image.Rect(0, 0, 250, 122), driver.LastFrame().Bounds())
}

func TestScreen_InitFailure(t *testing.T) {
	driver := rtesting.NewFakeDriver(250, 122)
	driver.InitErr = assert.AnError
	screen := NewScreen(driver, ScreenOptions{})

	err := screen.Init()

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDisplay))
}

func TestScreen_DisplayFailure(t *testing.T) {
	driver := rtesting.NewFakeDriver(250, 122)
	driver.DisplayErrs[0] = assert.AnError
	screen := NewScreen(driver, ScreenOptions{})
	require.NoError(t, screen.Init())

	err := screen.ShowImage(blankCanvas(250, 122))

	assert.ErrorIs(t, err, assert.AnError)
}

func TestScreen_FontFallback(t *testing.T) {
	log := logger.NewBufferLogger()
	screen := NewScreen(rtesting.NewFakeDriver(250, 122), ScreenOptions{
		FontPath: filepath.Join(t.TempDir(), "missing.ttf"),
		FontSize: 10,
		Log:      log,
	})

	assert.Equal(t, 21, screen.Measurer().Measure("abc"))
	assert.True(t, log.Contains("warn", "built-in font"))
}

func TestLoadSplash(t *testing.T) {
	path := writePNG(t, 400, 100, color.Black)

	img, err := LoadSplash(path, 250, 122)
	require.NoError(t, err)

	assert.Equal(t, 250, img.Bounds().Dx())
	assert.Equal(t, 122, img.Bounds().Dy())
	assert.False(t, inkAt(img, 0, 0), "letterbox is white")
	assert.True(t, inkAt(img, 125, 61), "image is centered")

	_, err = LoadSplash(filepath.Join(t.TempDir(), "missing.png"), 250, 122)
	assert.Error(t, err)
}

func TestRotate(t *testing.T) {
	src := blankCanvas(4, 2)
	for _, tt := range []struct {
		degrees int
		w, h    int
	}{
		{0, 4, 2}, {90, 2, 4}, {180, 4, 2}, {270, 2, 4},
	} {
		got := Rotate(src, tt.degrees)
		assert.Equal(t, tt.w, got.Bounds().Dx(), "degrees %d", tt.degrees)
		assert.Equal(t, tt.h, got.Bounds().Dy(), "degrees %d", tt.degrees)
	}
}

func TestBraille(t *testing.T) {
	black := image.NewGray(image.Rect(0, 0, 2, 4))
	assert.Equal(t, "⣿", Braille(black))

	white := newMonoImage(2, 4)
	assert.Equal(t, "⠀", Braille(white))

	// Top-left pixel only lights dot 1.
	one := newMonoImage(2, 4)
	one.Set(0, 0, color.Black)
	assert.Equal(t, "⠁", Braille(one))

	// Partial cells at the edges still get a character.
	odd := newMonoImage(3, 5)
	lines := strings.Split(Braille(odd), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 2, len([]rune(lines[0])))
}

func TestTerminalDriver(t *testing.T) {
	var buf bytes.Buffer
	d := NewTerminalDriver(&buf, 4, 4)
	require.NoError(t, d.Init())

	w, h := d.Dimensions()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	img := d.NewImage(4, 4)
	img.Set(0, 0, color.Black)
	require.NoError(t, d.Display(img))

	out := buf.String()
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "⠁⠀")
	assert.NoError(t, d.Close())
}

func TestTerminalDriver_InvalidSize(t *testing.T) {
	assert.Error(t, NewTerminalDriver(&bytes.Buffer{}, 0, 122).Init())
}

func TestNewDriver(t *testing.T) {
	d, err := NewDriver("terminal", DriverOptions{Width: 250, Height: 122, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.IsType(t, &TerminalDriver{}, d)

	d, err = NewDriver("fbdev", DriverOptions{Device: "/dev/fb1"})
	require.NoError(t, err)
	assert.IsType(t, &FBDevDriver{}, d)

	_, err = NewDriver("epaper", DriverOptions{})
	assert.Error(t, err)
}

func TestEncodeFrame(t *testing.T) {
	img := newMonoImage(2, 1)
	img.Set(0, 0, color.Black)

	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0xff}, EncodeFrame(img, 2, 1, 16, 4))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}, EncodeFrame(img, 2, 1, 32, 8))

	// Stride padding is left zero; pixels beyond the image are white.
	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00}, EncodeFrame(img, 3, 1, 16, 8))
}

func TestFBDevDriver(t *testing.T) {
	root := t.TempDir()
	orig := sysfsGraphics
	sysfsGraphics = filepath.Join(root, "sys")
	t.Cleanup(func() { sysfsGraphics = orig })

	sys := filepath.Join(sysfsGraphics, "fb1")
	require.NoError(t, os.MkdirAll(sys, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sys, "virtual_size"), []byte("2,2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sys, "bits_per_pixel"), []byte("16\n"), 0o600))

	device := filepath.Join(root, "fb1")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	d := NewFBDevDriver(device)
	require.NoError(t, d.Init())
	w, h := d.Dimensions()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	img := d.NewImage(2, 2)
	img.Set(1, 1, color.Black)
	require.NoError(t, d.Display(img))
	require.NoError(t, d.Close())

	written, err := os.ReadFile(device)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00}, written)
}

func TestFBDevDriver_MissingSysfs(t *testing.T) {
	orig := sysfsGraphics
	sysfsGraphics = t.TempDir()
	t.Cleanup(func() { sysfsGraphics = orig })

	d := NewFBDevDriver("/dev/fb9")
	assert.Error(t, d.Init())
	assert.Error(t, d.Display(newMonoImage(1, 1)))
}
