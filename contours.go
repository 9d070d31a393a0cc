package capture

import (
	"image"
	"sort"
)

type region struct {
	label  int32
	bounds image.Rectangle
	pixels int
}

// largestRegion finds the outer region of non-zero pixels with the largest
// enclosed area (its own pixels plus any holes it surrounds) and returns its
// bounding rectangle. Foreground is 8-connected, background 4-connected. The
// bool is false when the image has no foreground at all.
func largestRegion(binary *image.Gray) (image.Rectangle, bool) {
	labels, regions := labelRegions(binary)
	if len(regions) == 0 {
		return image.Rectangle{}, false
	}

	// a region can never enclose more than its bounding box, so visit the
	// biggest boxes first and stop once no box can beat the best area
	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return boxArea(regions[order[a]].bounds) > boxArea(regions[order[b]].bounds)
	})

	w := binary.Bounds().Dx()
	best, bestArea := -1, -1
	for _, idx := range order {
		r := regions[idx]
		if boxArea(r.bounds) < bestArea {
			break
		}
		area := enclosedArea(labels, w, r)
		if area > bestArea || (area == bestArea && idx < best) {
			best, bestArea = idx, area
		}
	}
	return regions[best].bounds, true
}

func boxArea(r image.Rectangle) int { return r.Dx() * r.Dy() }

// labelRegions assigns a label to every 8-connected group of non-zero pixels.
// Regions are returned in raster order of their first pixel.
func labelRegions(binary *image.Gray) ([]int32, []region) {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	labels := make([]int32, w*h)
	var regions []region
	var stack []int

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if labels[i] != 0 || binary.Pix[binary.PixOffset(b.Min.X+x, b.Min.Y+y)] == 0 {
				continue
			}
			label := int32(len(regions) + 1)
			r := region{label: label, bounds: image.Rect(x, y, x+1, y+1)}
			labels[i] = label
			stack = append(stack[:0], i)
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur%w, cur/w
				r.pixels++
				r.bounds = r.bounds.Union(image.Rect(cx, cy, cx+1, cy+1))
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := cx+dx, cy+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						n := ny*w + nx
						if labels[n] != 0 || binary.Pix[binary.PixOffset(b.Min.X+nx, b.Min.Y+ny)] == 0 {
							continue
						}
						labels[n] = label
						stack = append(stack, n)
					}
				}
			}
			regions = append(regions, r)
		}
	}
	return labels, regions
}

// enclosedArea counts the pixels inside the outer boundary of r by flooding
// the outside of r within its bounding box padded by one pixel.
func enclosedArea(labels []int32, w int, r region) int {
	bw, bh := r.bounds.Dx()+2, r.bounds.Dy()+2
	outside := make([]bool, bw*bh)
	isRegion := func(px, py int) bool {
		x, y := r.bounds.Min.X+px-1, r.bounds.Min.Y+py-1
		if px == 0 || py == 0 || px == bw-1 || py == bh-1 {
			return false
		}
		return labels[y*w+x] == r.label
	}

	outsideCount := 0
	stack := []int{0}
	outside[0] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		outsideCount++
		cx, cy := cur%bw, cur/bw
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= bw || ny >= bh {
				continue
			}
			n := ny*bw + nx
			if outside[n] || isRegion(nx, ny) {
				continue
			}
			outside[n] = true
			stack = append(stack, n)
		}
	}
	return bw*bh - outsideCount
}
