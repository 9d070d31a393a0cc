package capture

import (
	"image"
	"math"
)

// adaptiveThreshold binarizes src against a gaussian weighted local mean of a
// blockSize x blockSize neighbourhood: pixels brighter than mean-c become 255.
// Borders replicate the edge pixels.
func adaptiveThreshold(src *image.Gray, blockSize int, c int) *image.Gray {
	sigma := 0.3*(float64(blockSize-1)*0.5-1) + 0.8
	mean := separableBlur(src, gaussianKernel1D(blockSize, sigma))

	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)])
			m := int(math.Round(mean[y*b.Dx()+x]))
			if v > m-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// separableBlur convolves src with kernel horizontally then vertically and
// returns the result as a row-major float slice.
func separableBlur(src *image.Gray, kernel []float64) []float64 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	half := len(kernel) / 2

	horizontal := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * float64(row[clampInt(x+k-half, 0, w-1)])
			}
			horizontal[y*w+x] = acc
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, weight := range kernel {
				acc += weight * horizontal[clampInt(y+k-half, 0, h-1)*w+x]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

// otsuThreshold picks the global threshold that maximizes the between-class
// variance of the histogram.
func otsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := src.PixOffset(b.Min.X, y)
		for _, v := range src.Pix[off : off+b.Dx()] {
			hist[v]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	if total == 0 {
		return 0
	}
	var sum float64
	for level, count := range hist {
		sum += float64(level * count)
	}

	var sumBackground, weightBackground, best float64
	threshold := 0
	for level := 0; level < 256; level++ {
		weightBackground += float64(hist[level])
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(level * hist[level])
		meanBackground := sumBackground / weightBackground
		meanForeground := (sum - sumBackground) / weightForeground
		between := weightBackground * weightForeground * (meanBackground - meanForeground) * (meanBackground - meanForeground)
		if between > best {
			best = between
			threshold = level
		}
	}
	return uint8(threshold)
}

// otsuBinarize maps pixels above the Otsu threshold to 255 and the rest to 0.
func otsuBinarize(src *image.Gray) *image.Gray {
	t := otsuThreshold(src)
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x, v := range src.Pix[off : off+b.Dx()] {
			if v > t {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
