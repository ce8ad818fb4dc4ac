package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// LoadSplash decodes the image at path and centers it on a white canvas of
// width x height, shrinking it to fit when it is larger.
func LoadSplash(path string, width, height int) (image.Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open splash image: %w", err)
	}
	return FitCanvas(src, width, height), nil
}

// FitCanvas scales src down to fit width x height and pastes it centered on
// a white background.
func FitCanvas(src image.Image, width, height int) image.Image {
	fitted := imaging.Fit(src, width, height, imaging.Lanczos)
	bg := imaging.New(width, height, color.White)
	return imaging.PasteCenter(bg, fitted)
}

// Rotate turns img counter-clockwise by degrees (0, 90, 180 or 270).
func Rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}
