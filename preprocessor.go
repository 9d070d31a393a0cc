package capture

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	PreprocessorIdentity = "identity"
	PreprocessorPlate    = "plate"
	PreprocessorOpenCV   = "opencv"
)

// Preprocessor turns a decoded camera frame into a binary image for OCR.
type Preprocessor interface {
	Preprocess(img image.Image) (*image.Gray, error)
}

// NewPreprocessor returns the preprocessor registered under name.
func NewPreprocessor(name string) (Preprocessor, error) {
	switch name {
	case PreprocessorPlate, "":
		return PlatePreprocessor{}, nil
	case PreprocessorIdentity:
		return IdentityPreprocessor{}, nil
	case PreprocessorOpenCV:
		return newOpenCVPreprocessor()
	}
	return nil, fmt.Errorf("no preprocessor found for: %q", name)
}

// decodeRawImage decodes camera bytes, honouring EXIF orientation.
func decodeRawImage(raw []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
}

// IdentityPreprocessor only converts to grayscale.
type IdentityPreprocessor struct{}

func (IdentityPreprocessor) Preprocess(img image.Image) (*image.Gray, error) {
	return toGray(img), nil
}

// PlatePreprocessor locates the dominant region of the frame (usually the
// plate or label), crops to it and binarizes with Otsu's threshold.
type PlatePreprocessor struct{}

const (
	adaptiveBlockSize = 11
	adaptiveC         = 2
)

// blurKernel5x5 is a normalized 5x5 gaussian with the sigma OpenCV derives
// for a 5 pixel kernel: 0.3*((5-1)*0.5-1)+0.8.
var blurKernel5x5 = gaussianKernel2D(5, 1.1)

func (PlatePreprocessor) Preprocess(img image.Image) (*image.Gray, error) {
	gray := toGray(img)
	blurred := toGray(imaging.Convolve5x5(gray, blurKernel5x5, &imaging.ConvolveOptions{Normalize: true}))
	binary := adaptiveThreshold(blurred, adaptiveBlockSize, adaptiveC)

	region, ok := largestRegion(binary)
	cropped := gray
	if ok {
		cropped = cropGray(gray, region)
	}
	return otsuBinarize(cropped), nil
}

// toGray converts any image to an 8-bit single channel image using
// imaging's luma weights.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

func cropGray(src *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(src.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		off := src.PixOffset(r.Min.X, r.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+r.Dx()], src.Pix[off:off+r.Dx()])
	}
	return dst
}

func gaussianKernel1D(size int, sigma float64) []float64 {
	kernel := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func gaussianKernel2D(size int, sigma float64) [25]float64 {
	var kernel [25]float64
	k := gaussianKernel1D(size, sigma)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			kernel[y*size+x] = k[y] * k[x]
		}
	}
	return kernel
}
