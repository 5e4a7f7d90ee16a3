package imageops

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

var (
	gaussian3 = [9]float64{1, 2, 1, 2, 4, 2, 1, 2, 1}
	sharpen3  = [9]float64{0, -1, 0, -1, 5, -1, 0, -1, 0}
)

// GaussianBlur3 smooths g with the normalized 3x3 binomial kernel.
func GaussianBlur3(g *image.Gray) *image.Gray {
	return fromNRGBA(imaging.Convolve3x3(g, gaussian3, &imaging.ConvolveOptions{Normalize: true}))
}

// Sharpen applies the 3x3 cross sharpening kernel, saturating at 0 and 255.
func Sharpen(g *image.Gray) *image.Gray {
	return fromNRGBA(imaging.Convolve3x3(g, sharpen3, nil))
}

// LaplacianVariance scores focus: the variance of the 4-neighbour Laplacian.
// Blurred scans score low.
func LaplacianVariance(g *image.Gray) float64 {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float64(g.Pix[y*g.Stride+x])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	return sumSq/n - mean*mean
}

// CLAHE equalizes contrast per tile with a clipped histogram and blends the
// tile mappings bilinearly.
func CLAHE(g *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w == 0 || h == 0 || tilesX <= 0 || tilesY <= 0 {
		return clone(g)
	}
	tw := (w + tilesX - 1) / tilesX
	th := (h + tilesY - 1) / tilesY

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			luts[ty*tilesX+tx] = tileLUT(g, image.Rect(tx*tw, ty*th, (tx+1)*tw, (ty+1)*th), clipLimit)
		}
	}

	dst := image.NewGray(g.Bounds())
	for y := 0; y < h; y++ {
		fy := float64(y)/float64(th) - 0.5
		ty1 := int(math.Floor(fy))
		ya := fy - float64(ty1)
		ty2 := ty1 + 1
		ty1 = max(ty1, 0)
		ty2 = min(ty2, tilesY-1)

		for x := 0; x < w; x++ {
			fx := float64(x)/float64(tw) - 0.5
			tx1 := int(math.Floor(fx))
			xa := fx - float64(tx1)
			tx2 := tx1 + 1
			tx1 = max(tx1, 0)
			tx2 = min(tx2, tilesX-1)

			p := g.Pix[y*g.Stride+x]
			top := float64(luts[ty1*tilesX+tx1][p])*(1-xa) + float64(luts[ty1*tilesX+tx2][p])*xa
			bottom := float64(luts[ty2*tilesX+tx1][p])*(1-xa) + float64(luts[ty2*tilesX+tx2][p])*xa
			dst.Pix[y*dst.Stride+x] = clampByte(top*(1-ya) + bottom*ya)
		}
	}
	return dst
}

func tileLUT(g *image.Gray, r image.Rectangle, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	r = r.Intersect(g.Bounds())
	area := r.Dx() * r.Dy()
	if area == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	var hist [256]int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[g.Pix[y*g.Stride+x]]++
		}
	}

	limit := max(int(clipLimit*float64(area)/256), 1)
	clipped := 0
	for i, c := range hist {
		if c > limit {
			clipped += c - limit
			hist[i] = limit
		}
	}
	batch := clipped / 256
	residual := clipped - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(256/residual, 1)
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}

	scale := 255.0 / float64(area)
	sum := 0
	for i, c := range hist {
		sum += c
		lut[i] = clampByte(float64(sum) * scale)
	}
	return lut
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
