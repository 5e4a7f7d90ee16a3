package imageops

import "image"

// Threshold binarizes g: pixels strictly above t become 255, the rest 0.
// With inverse set the polarity is flipped.
func Threshold(g *image.Gray, t uint8, inverse bool) *image.Gray {
	on, off := uint8(255), uint8(0)
	if inverse {
		on, off = 0, 255
	}
	dst := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		if p > t {
			dst.Pix[i] = on
		} else {
			dst.Pix[i] = off
		}
	}
	return dst
}

// OtsuLevel returns the level that maximizes the between-class variance of
// the histogram of g.
func OtsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := float64(len(g.Pix))
	if total == 0 {
		return 0
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, wB, best float64
	level := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// ThresholdOtsu binarizes g at its Otsu level.
func ThresholdOtsu(g *image.Gray, inverse bool) *image.Gray {
	return Threshold(g, OtsuLevel(g), inverse)
}

// AdaptiveMean binarizes each pixel against the mean of its block x block
// neighbourhood minus c. Windows are clipped at the border.
func AdaptiveMean(g *image.Gray, block int, c float64, inverse bool) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	if w == 0 || h == 0 {
		return dst
	}

	// integral image with a zero guard row and column
	iw := w + 1
	integral := make([]int64, iw*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(g.Pix[y*g.Stride+x])
			integral[(y+1)*iw+x+1] = integral[y*iw+x+1] + row
		}
	}

	r := block / 2
	on, off := uint8(255), uint8(0)
	if inverse {
		on, off = 0, 255
	}
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-r), min(h, y+r+1)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-r), min(w, x+r+1)
			s := integral[y1*iw+x1] - integral[y0*iw+x1] - integral[y1*iw+x0] + integral[y0*iw+x0]
			mean := float64(s) / float64((x1-x0)*(y1-y0))
			if float64(g.Pix[y*g.Stride+x]) > mean-c {
				dst.Pix[y*dst.Stride+x] = on
			} else {
				dst.Pix[y*dst.Stride+x] = off
			}
		}
	}
	return dst
}
