package imageops

import "image"

// maskWithRects builds a w x h mask with the given rectangles set to 255.
func maskWithRects(w, h int, rects ...image.Rectangle) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range rects {
		r = r.Intersect(g.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}

func countSet(g *image.Gray) int {
	n := 0
	for _, p := range g.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// outline draws a one pixel frame around r.
func outline(g *image.Gray, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		g.Pix[r.Min.Y*g.Stride+x] = 255
		g.Pix[(r.Max.Y-1)*g.Stride+x] = 255
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		g.Pix[y*g.Stride+r.Min.X] = 255
		g.Pix[y*g.Stride+r.Max.X-1] = 255
	}
}
