package render

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sysfsGraphics is where the kernel exposes framebuffer geometry.
var sysfsGraphics = "/sys/class/graphics"

// FBDevDriver writes frames to a Linux framebuffer device such as the
// SPI panels exposed by fbtft.
type FBDevDriver struct {
	device string
	file   *os.File

	width, height int
	bpp           int
	stride        int
}

// NewFBDevDriver targets device, e.g. /dev/fb1.
func NewFBDevDriver(device string) *FBDevDriver {
	return &FBDevDriver{device: device}
}

// Init opens the device and reads its geometry from sysfs.
func (d *FBDevDriver) Init() error {
	sys := filepath.Join(sysfsGraphics, filepath.Base(d.device))

	size, err := readSysfs(sys, "virtual_size")
	if err != nil {
		return err
	}
	w, h, ok := strings.Cut(size, ",")
	if !ok {
		return fmt.Errorf("unexpected virtual_size %q", size)
	}
	if d.width, err = strconv.Atoi(w); err != nil {
		return fmt.Errorf("unexpected virtual_size %q", size)
	}
	if d.height, err = strconv.Atoi(h); err != nil {
		return fmt.Errorf("unexpected virtual_size %q", size)
	}

	bpp, err := readSysfs(sys, "bits_per_pixel")
	if err != nil {
		return err
	}
	if d.bpp, err = strconv.Atoi(bpp); err != nil || (d.bpp != 16 && d.bpp != 32) {
		return fmt.Errorf("unsupported bits_per_pixel %q (want 16 or 32)", bpp)
	}

	d.stride = d.width * d.bpp / 8
	if s, err := readSysfs(sys, "stride"); err == nil {
		if v, err := strconv.Atoi(s); err == nil && v >= d.stride {
			d.stride = v
		}
	}

	f, err := os.OpenFile(d.device, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}
	d.file = f
	return nil
}

func readSysfs(dir, name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read framebuffer %s: %w", name, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Dimensions returns the framebuffer resolution.
func (d *FBDevDriver) Dimensions() (int, int) {
	return d.width, d.height
}

// NewImage returns a blank frame.
func (d *FBDevDriver) NewImage(width, height int) draw.Image {
	return newMonoImage(width, height)
}

// Display converts img to the framebuffer pixel format and writes it.
func (d *FBDevDriver) Display(img image.Image) error {
	if d.file == nil {
		return fmt.Errorf("framebuffer %s not initialized", d.device)
	}
	buf := EncodeFrame(img, d.width, d.height, d.bpp, d.stride)
	if _, err := d.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write framebuffer: %w", err)
	}
	return nil
}

// Close closes the device.
func (d *FBDevDriver) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// EncodeFrame packs img into a width x height framebuffer of bpp bits
// per pixel (16 = RGB565, 32 = XRGB8888, both little-endian). Ink pixels
// are black, everything else white. Pixels outside img stay white.
func EncodeFrame(img image.Image, width, height, bpp, stride int) []byte {
	buf := make([]byte, stride*height)
	bytesPer := bpp / 8
	b := img.Bounds()
	for y := 0; y < height; y++ {
		row := buf[y*stride:]
		for x := 0; x < width; x++ {
			px := row[x*bytesPer : (x+1)*bytesPer]
			var v byte = 0xff
			if x < b.Dx() && y < b.Dy() && isInk(img.At(b.Min.X+x, b.Min.Y+y)) {
				v = 0x00
			}
			for i := range px {
				px[i] = v
			}
		}
	}
	return buf
}
