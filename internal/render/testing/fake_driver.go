// Package testing provides a fake display driver.
package testing

import (
	"image"
	"image/draw"
	"sync"
)

// FakeDriver records frames instead of showing them.
type FakeDriver struct {
	mu sync.Mutex

	Width, Height int

	InitErr  error
	CloseErr error
	// DisplayErrs fails the Nth Display call (0-based).
	DisplayErrs map[int]error

	Inited   bool
	Closed   bool
	Displays int
	Frames   []image.Image
}

// NewFakeDriver creates a fake panel of the given native size.
func NewFakeDriver(width, height int) *FakeDriver {
	return &FakeDriver{Width: width, Height: height, DisplayErrs: make(map[int]error)}
}

// Init records the call and returns InitErr.
func (d *FakeDriver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Inited = d.InitErr == nil
	return d.InitErr
}

// Dimensions returns Width, Height.
func (d *FakeDriver) Dimensions() (int, int) {
	return d.Width, d.Height
}

// NewImage returns a blank gray image.
func (d *FakeDriver) NewImage(width, height int) draw.Image {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// Display records img unless DisplayErrs fails this call.
func (d *FakeDriver) Display(img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.Displays
	d.Displays++
	if err := d.DisplayErrs[n]; err != nil {
		return err
	}
	d.Frames = append(d.Frames, img)
	return nil
}

// Close marks the driver closed.
func (d *FakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return d.CloseErr
}

// FrameCount returns the number of frames shown.
func (d *FakeDriver) FrameCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Frames)
}

// LastFrame returns the most recent frame, or nil.
func (d *FakeDriver) LastFrame() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Frames) == 0 {
		return nil
	}
	return d.Frames[len(d.Frames)-1]
}
