package render

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/rileyhilliard/relaystat/internal/layout"
)

// Paint draws plan onto img: white background, black text and bar.
func Paint(img draw.Image, plan layout.Plan, face font.Face) {
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for _, line := range plan.Lines {
		// Line.Y is the top of the row; the drawer wants the baseline.
		d.Dot = fixed.P(line.X, line.Y+ascent)
		d.DrawString(line.Text)
	}

	if plan.Bar != nil {
		paintBar(img, *plan.Bar)
	}
}

// paintBar draws the usage bar. Corners are inclusive, so a bar TotalWidth
// wide spans TotalWidth+1 pixels, matching the reference rendering.
func paintBar(img draw.Image, bar layout.Bar) {
	x0, y0 := bar.X, bar.Y
	y1 := y0 + bar.TrackHeight

	fill := image.Rect(x0, y0, x0+bar.FilledWidth+1, y1+1)
	draw.Draw(img, fill, image.Black, image.Point{}, draw.Src)

	strokeRect(img, image.Rect(x0, y0, x0+bar.TotalWidth+1, y1+1))
}

// strokeRect draws a one pixel outline just inside r.
func strokeRect(img draw.Image, r image.Rectangle) {
	if r.Empty() {
		return
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, image.Black, image.Point{}, draw.Src)
	}
}
