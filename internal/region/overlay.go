package region

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	cellColor  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	tableColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Overlay draws the table outline and numbered cell boxes over a copy of page.
func Overlay(page image.Image, a Analysis) *image.RGBA {
	b := page.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), page, b.Min, draw.Src)

	if !a.Table.Empty() {
		drawRect(dst, a.Table, tableColor, 2)
	}
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(cellColor),
		Face: basicfont.Face7x13,
	}
	for i, box := range a.Cells {
		drawRect(dst, box, cellColor, 3)
		label := strconv.Itoa(i + 1)
		w := font.MeasureString(drawer.Face, label).Ceil()
		h := drawer.Face.Metrics().Height.Ceil()
		drawer.Dot = fixed.P(box.Min.X+(box.Dx()-w)/2, box.Min.Y+(box.Dy()+h)/2)
		drawer.DrawString(label)
	}
	return dst
}

func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}
