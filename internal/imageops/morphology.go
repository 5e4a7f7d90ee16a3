package imageops

import "image"

// MorphOp selects a rectangular morphological operation.
type MorphOp int

const (
	MorphNone MorphOp = iota
	MorphDilate
	MorphErode
	MorphOpen  // erode then dilate, drops specks smaller than the kernel
	MorphClose // dilate then erode, bridges gaps smaller than the kernel
)

// MorphConfig describes a kernel of KernelW x KernelH applied Iterations times.
type MorphConfig struct {
	Operation  MorphOp
	KernelW    int
	KernelH    int
	Iterations int
}

// Morph applies cfg to a binary mask and returns a new mask.
func Morph(g *image.Gray, cfg MorphConfig) *image.Gray {
	if cfg.Operation == MorphNone || cfg.KernelW <= 0 || cfg.KernelH <= 0 {
		return clone(g)
	}
	iters := max(1, cfg.Iterations)

	out := g
	for range iters {
		switch cfg.Operation {
		case MorphDilate:
			out = Dilate(out, cfg.KernelW, cfg.KernelH)
		case MorphErode:
			out = Erode(out, cfg.KernelW, cfg.KernelH)
		case MorphOpen:
			out = Dilate(Erode(out, cfg.KernelW, cfg.KernelH), cfg.KernelW, cfg.KernelH)
		case MorphClose:
			out = Erode(Dilate(out, cfg.KernelW, cfg.KernelH), cfg.KernelW, cfg.KernelH)
		}
	}
	return out
}

// Dilate takes the maximum over a kw x kh window anchored at its centre.
func Dilate(g *image.Gray, kw, kh int) *image.Gray {
	return rectFilter(g, kw, kh, true)
}

// Erode takes the minimum over a kw x kh window anchored at its centre.
// Pixels outside the image do not constrain the result.
func Erode(g *image.Gray, kw, kh int) *image.Gray {
	return rectFilter(g, kw, kh, false)
}

// Open is erosion followed by dilation.
func Open(g *image.Gray, kw, kh int) *image.Gray {
	return Dilate(Erode(g, kw, kh), kw, kh)
}

// Close is dilation followed by erosion.
func Close(g *image.Gray, kw, kh int) *image.Gray {
	return Erode(Dilate(g, kw, kh), kw, kh)
}

// Or combines two masks of the same size.
func Or(a, b *image.Gray) *image.Gray {
	dst := image.NewGray(a.Bounds())
	for i := range dst.Pix {
		if i < len(b.Pix) {
			dst.Pix[i] = a.Pix[i] | b.Pix[i]
		} else {
			dst.Pix[i] = a.Pix[i]
		}
	}
	return dst
}

// rectFilter runs the separable min/max filter: rows first, then columns.
// Dilation uses the reflected window so that opening and closing stay
// anti-extensive and extensive for even kernel sizes too.
func rectFilter(g *image.Gray, kw, kh int, takeMax bool) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	tmp := image.NewGray(g.Bounds())
	lo, hi := window(kw, takeMax)
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		out := tmp.Pix[y*tmp.Stride : y*tmp.Stride+w]
		for x := 0; x < w; x++ {
			out[x] = extreme(row, max(0, x+lo), min(w-1, x+hi), 1, takeMax)
		}
	}

	dst := image.NewGray(g.Bounds())
	lo, hi = window(kh, takeMax)
	for x := 0; x < w; x++ {
		col := tmp.Pix[x:]
		for y := 0; y < h; y++ {
			y0, y1 := max(0, y+lo), min(h-1, y+hi)
			dst.Pix[y*dst.Stride+x] = extreme(col, y0*tmp.Stride, y1*tmp.Stride, tmp.Stride, takeMax)
		}
	}
	return dst
}

func window(k int, reflect bool) (int, int) {
	lo, hi := -(k / 2), k-1-k/2
	if reflect {
		return -hi, -lo
	}
	return lo, hi
}

func extreme(pix []uint8, from, to, step int, takeMax bool) uint8 {
	v := pix[from]
	for i := from + step; i <= to; i += step {
		p := pix[i]
		if takeMax {
			if p > v {
				v = p
				if v == 255 {
					break
				}
			}
		} else if p < v {
			v = p
			if v == 0 {
				break
			}
		}
	}
	return v
}

func clone(g *image.Gray) *image.Gray {
	dst := image.NewGray(g.Bounds())
	copy(dst.Pix, g.Pix)
	return dst
}
