package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// fontDPI makes font size equal pixel size, as PIL's truetype loader does.
const fontDPI = 72

// FallbackFace is used when no font file is configured or it can't be loaded.
var FallbackFace font.Face = basicfont.Face7x13

// LoadFace loads a TrueType/OpenType font at size points. An empty path
// returns FallbackFace.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return FallbackFace, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font face %s: %w", path, err)
	}
	return face, nil
}

// FaceMeasurer measures text widths in pixels with a font face.
type FaceMeasurer struct {
	Face font.Face
}

// Measure returns the advance width of text, rounded up.
func (m FaceMeasurer) Measure(text string) int {
	return font.MeasureString(m.Face, text).Ceil()
}
