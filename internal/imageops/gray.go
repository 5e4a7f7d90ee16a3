// Package imageops implements the raster primitives used to locate header
// regions on scanned pages: grayscale conversion, thresholding, rectangular
// morphology, connected-component boxes, contrast enhancement and edges.
//
// Binary masks are *image.Gray values holding 0 or 255, anchored at the origin.
package imageops

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ToGray converts img to an 8-bit luma raster anchored at the origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[off:off+w])
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				p := src.Pix[off+x*4 : off+x*4+3]
				dst.Pix[y*dst.Stride+x] = luma(p[0], p[1], p[2])
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				p := src.Pix[off+x*4 : off+x*4+3]
				dst.Pix[y*dst.Stride+x] = luma(p[0], p[1], p[2])
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Pix[y*dst.Stride+x] = src.Y[src.YOffset(b.Min.X+x, b.Min.Y+y)]
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				dst.Pix[y*dst.Stride+x] = c.Y
			}
		}
	}
	return dst
}

// luma uses the BT.601 weights of color.GrayModel.
func luma(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// Crop returns the part of img inside r, where r is relative to the image
// origin. The rectangle is clamped to the image bounds.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	b := img.Bounds()
	abs := r.Add(b.Min).Intersect(b)
	if abs.Empty() {
		return nil, &ImageOpError{Operation: "crop", Err: errors.New("region outside image")}
	}
	return imaging.Crop(img, abs), nil
}

// CropGray copies the part of g inside r into a new raster anchored at the origin.
func CropGray(g *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(g.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		off := g.PixOffset(r.Min.X, r.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+r.Dx()], g.Pix[off:off+r.Dx()])
	}
	return dst
}

// PrepareForOCR grayscales, inverts and doubles the size of a highlighted
// region so the engine sees dark glyphs on a light field.
func PrepareForOCR(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := imaging.Grayscale(img)
	out = imaging.Invert(out)
	return imaging.Resize(out, b.Dx()*2, b.Dy()*2, imaging.CatmullRom)
}

// fromNRGBA takes the red channel of an image whose channels are equal.
func fromNRGBA(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = src.Pix[off+x*4]
		}
	}
	return dst
}
