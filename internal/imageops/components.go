package imageops

import (
	"image"
	"sort"
)

// ExternalBoxes returns the bounding boxes of 8-connected foreground blobs
// that are not enclosed by another blob, in raster discovery order.
func ExternalBoxes(g *image.Gray) []image.Rectangle {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	labels, comps := labelForeground(g)
	outside := outerBackground(g)

	external := make([]bool, len(comps))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			if l == 0 || external[l-1] {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 ||
				outside[y*w+x-1] || outside[y*w+x+1] || outside[(y-1)*w+x] || outside[(y+1)*w+x] {
				external[l-1] = true
			}
		}
	}

	boxes := make([]image.Rectangle, 0, len(comps))
	for i, c := range comps {
		if external[i] {
			boxes = append(boxes, c.box)
		}
	}
	return boxes
}

// TreeBoxes returns every foreground blob box together with the boxes of the
// enclosed background holes, ordered by where each was first reached in a
// raster scan. Hole boxes include the one pixel border that encloses them,
// which is how table cells bounded by ruling lines are found.
func TreeBoxes(g *image.Gray) []image.Rectangle {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	_, comps := labelForeground(g)
	outside := outerBackground(g)
	holes := labelHoles(g, outside)

	all := make([]component, 0, len(comps)+len(holes))
	all = append(all, comps...)
	for _, hc := range holes {
		hc.box = image.Rect(hc.box.Min.X-1, hc.box.Min.Y-1, hc.box.Max.X+1, hc.box.Max.Y+1).
			Intersect(image.Rect(0, 0, w, h))
		all = append(all, hc)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].seed < all[j].seed })

	boxes := make([]image.Rectangle, len(all))
	for i, c := range all {
		boxes[i] = c.box
	}
	return boxes
}

// LargestBox returns the box with the greatest area, or false when boxes is empty.
func LargestBox(boxes []image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	bestArea := 0
	for _, b := range boxes {
		if a := b.Dx() * b.Dy(); a > bestArea {
			bestArea = a
			best = b
		}
	}
	return best, bestArea > 0
}

type component struct {
	seed int
	box  image.Rectangle
}

var (
	neighbours8 = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	neighbours4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

// labelForeground assigns 1-based labels to 8-connected foreground pixels.
func labelForeground(g *image.Gray) ([]int32, []component) {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	labels := make([]int32, w*h)
	var comps []component
	queue := make([]int, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if g.Pix[y*g.Stride+x] == 0 || labels[idx] != 0 {
				continue
			}
			label := int32(len(comps) + 1)
			c := component{seed: idx, box: image.Rect(x, y, x+1, y+1)}
			labels[idx] = label
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := ci%w, ci/w
				c.box = c.box.Union(image.Rect(cx, cy, cx+1, cy+1))
				for _, d := range neighbours8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if labels[ni] == 0 && g.Pix[ny*g.Stride+nx] != 0 {
						labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, c)
		}
	}
	return labels, comps
}

// outerBackground marks background pixels 4-connected to the image border.
func outerBackground(g *image.Gray) []bool {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	outside := make([]bool, w*h)
	queue := make([]int, 0, 1024)
	push := func(x, y int) {
		i := y*w + x
		if !outside[i] && g.Pix[y*g.Stride+x] == 0 {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(queue) > 0 {
		ci := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := ci%w, ci/w
		for _, d := range neighbours4 {
			nx, ny := cx+d[0], cy+d[1]
			if nx >= 0 && ny >= 0 && nx < w && ny < h {
				push(nx, ny)
			}
		}
	}
	return outside
}

// labelHoles finds 4-connected background regions not reachable from the border.
func labelHoles(g *image.Gray, outside []bool) []component {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	seen := make([]bool, w*h)
	var holes []component
	queue := make([]int, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if seen[idx] || outside[idx] || g.Pix[y*g.Stride+x] != 0 {
				continue
			}
			c := component{seed: idx, box: image.Rect(x, y, x+1, y+1)}
			seen[idx] = true
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := ci%w, ci/w
				c.box = c.box.Union(image.Rect(cx, cy, cx+1, cy+1))
				for _, d := range neighbours4 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if !seen[ni] && !outside[ni] && g.Pix[ny*g.Stride+nx] == 0 {
						seen[ni] = true
						queue = append(queue, ni)
					}
				}
			}
			holes = append(holes, c)
		}
	}
	return holes
}
