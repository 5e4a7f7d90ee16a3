package imageops

import (
	"image"

	"github.com/disintegration/imaging"
)

// HSV is a colour in the 8-bit convention used by scanner tooling:
// hue in [0,180), saturation and value in [0,255].
type HSV struct {
	H, S, V uint8
}

// ToHSV converts an RGB triple.
func ToHSV(r, g, b uint8) HSV {
	v := max(r, g, b)
	mn := min(r, g, b)
	diff := float64(v) - float64(mn)

	var s float64
	if v != 0 {
		s = 255 * diff / float64(v)
	}

	var hue float64
	if diff != 0 {
		switch v {
		case r:
			hue = 60 * (float64(g) - float64(b)) / diff
		case g:
			hue = 120 + 60*(float64(b)-float64(r))/diff
		default:
			hue = 240 + 60*(float64(r)-float64(g))/diff
		}
		if hue < 0 {
			hue += 360
		}
	}
	return HSV{H: clampByte(hue / 2), S: clampByte(s), V: v}
}

// InRangeHSV returns a mask set where the pixel colour lies within lo..hi
// on every channel.
func InRangeHSV(img image.Image, lo, hi HSV) *image.Gray {
	src := imaging.Clone(img)
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := y * src.Stride
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[off+x*4 : off+x*4+3]
			c := ToHSV(p[0], p[1], p[2])
			if c.H >= lo.H && c.H <= hi.H && c.S >= lo.S && c.S <= hi.S && c.V >= lo.V && c.V <= hi.V {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}
