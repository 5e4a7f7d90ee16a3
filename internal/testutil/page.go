package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Highlighter is the marker yellow the classifier looks for.
var Highlighter = color.NRGBA{R: 255, G: 220, B: 0, A: 255}

// WhitePage returns a white w x h page.
func WhitePage(w, h int) *image.NRGBA {
	page := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(page, page.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return page
}

// Fill paints r with c.
func Fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Outline draws a black border of the given thickness inside r.
func Outline(img draw.Image, r image.Rectangle, thick int) {
	Fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick), color.Black)
	Fill(img, image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y), color.Black)
	Fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y), color.Black)
	Fill(img, image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y), color.Black)
}

// RuledTable draws a rows x cols grid filling r and returns the inner
// cell rectangles in reading order.
func RuledTable(img draw.Image, r image.Rectangle, rows, cols, thick int) []image.Rectangle {
	ys := split(r.Min.Y, r.Max.Y-thick, rows)
	xs := split(r.Min.X, r.Max.X-thick, cols)
	for _, y := range ys {
		Fill(img, image.Rect(r.Min.X, y, r.Max.X, y+thick), color.Black)
	}
	for _, x := range xs {
		Fill(img, image.Rect(x, r.Min.Y, x+thick, r.Max.Y), color.Black)
	}

	cells := make([]image.Rectangle, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cells = append(cells, image.Rect(xs[j]+thick, ys[i]+thick, xs[j+1], ys[i+1]))
		}
	}
	return cells
}

// split returns n+1 evenly spaced positions from lo to hi.
func split(lo, hi, n int) []int {
	out := make([]int, n+1)
	for i := range out {
		out[i] = lo + (hi-lo)*i/n
	}
	return out
}

// DrawText writes text in black with its baseline at (x, y).
func DrawText(img draw.Image, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// HeaderSpec describes a synthetic document header.
type HeaderSpec struct {
	Width, Height int
	// Highlight is the marker box of new-format headers; empty for old ones.
	Highlight      image.Rectangle
	HighlightLines []string
	// Table is the ruled header table; empty for none.
	Table      image.Rectangle
	Rows, Cols int
	Cells      []string
	// Blur softens the page like a low-quality scan.
	Blur float64
}

// OldHeader is a header with a 2x3 table and no highlight.
func OldHeader(cells ...string) HeaderSpec {
	return HeaderSpec{
		Width: 2000, Height: 600,
		Table: image.Rect(100, 150, 1700, 393),
		Rows:  2, Cols: 3,
		Cells: cells,
	}
}

// NewHeader is a header with a highlighted barcode block next to a table.
func NewHeader(lines ...string) HeaderSpec {
	return HeaderSpec{
		Width: 3200, Height: 500,
		Highlight:      image.Rect(300, 100, 700, 200),
		HighlightLines: lines,
		Table:          image.Rect(1000, 150, 1800, 220),
		Rows:           1, Cols: 1,
	}
}

// HeaderPage renders spec.
func HeaderPage(spec HeaderSpec) image.Image {
	page := WhitePage(spec.Width, spec.Height)
	if !spec.Highlight.Empty() {
		Fill(page, spec.Highlight, Highlighter)
		for i, line := range spec.HighlightLines {
			DrawText(page, spec.Highlight.Min.X+10, spec.Highlight.Min.Y+20+i*16, line)
		}
	}
	if !spec.Table.Empty() && spec.Rows > 0 && spec.Cols > 0 {
		cells := RuledTable(page, spec.Table, spec.Rows, spec.Cols, 3)
		for i, text := range spec.Cells {
			if i >= len(cells) {
				break
			}
			DrawText(page, cells[i].Min.X+10, cells[i].Min.Y+cells[i].Dy()/2, text)
		}
	}
	if spec.Blur > 0 {
		return imaging.Blur(page, spec.Blur)
	}
	return page
}
