package imageops

import "image"

// Canny marks edge pixels using Sobel gradients with L1 magnitude,
// non-maximum suppression and hysteresis between low and high.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	dst := image.NewGray(g.Bounds())
	if w < 3 || h < 3 {
		return dst
	}
	at := func(x, y int) int {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int(g.Pix[y*g.Stride+x])
	}

	gx := make([]int, w*h)
	gy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			dy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = abs(dx) + abs(dy)
		}
	}
	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if float64(m) <= low {
				continue
			}
			ax, ay := abs(gx[i]), abs(gy[i])
			var a, b int
			switch {
			case ay*1000 < ax*414: // within 22.5 degrees of horizontal gradient
				a, b = magAt(x-1, y), magAt(x+1, y)
			case ay*1000 > ax*2414:
				a, b = magAt(x, y-1), magAt(x, y+1)
			case (gx[i] < 0) == (gy[i] < 0):
				a, b = magAt(x-1, y-1), magAt(x+1, y+1)
			default:
				a, b = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m <= a || m < b {
				continue
			}
			if float64(m) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dst.Pix[(i/w)*dst.Stride+i%w] = 255
		cx, cy := i%w, i/w
		for _, d := range neighbours8 {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if state[ni] == weak {
				state[ni] = strong
				stack = append(stack, ni)
			}
		}
	}
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
