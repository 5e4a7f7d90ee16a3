package imageops

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{0, 255, 255}},
		{"green", 0, 255, 0, HSV{60, 255, 255}},
		{"blue", 0, 0, 255, HSV{120, 255, 255}},
		{"yellow", 255, 255, 0, HSV{30, 255, 255}},
		{"gray", 128, 128, 128, HSV{0, 0, 128}},
		{"black", 0, 0, 0, HSV{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHSV(tt.r, tt.g, tt.b))
		})
	}
}

func TestInRangeHSV_SelectsHighlighterYellow(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.NRGBA{R: 250, G: 230, B: 40, A: 255})  // highlighter
	img.Set(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255}) // paper
	img.Set(2, 0, color.NRGBA{R: 20, G: 20, B: 20, A: 255})    // ink
	img.Set(3, 0, color.NRGBA{R: 40, G: 60, B: 220, A: 255})   // blue pen

	mask := InRangeHSV(img, HSV{20, 100, 100}, HSV{30, 255, 255})
	assert.Equal(t, []uint8{255, 0, 0, 0}, mask.Pix)
}
