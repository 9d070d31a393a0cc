package capture

import (
	"image"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestLargestRegionNoForeground(t *testing.T) {
	_, ok := largestRegion(image.NewGray(image.Rect(0, 0, 32, 32)))
	assert.True(t, !ok)
}

func TestLargestRegionPrefersEnclosedArea(t *testing.T) {
	binary := image.NewGray(image.Rect(0, 0, 64, 64))
	// hollow 20x20 ring: few pixels, large enclosed area
	for i := 5; i < 25; i++ {
		binary.SetGray(i, 5, whiteGray)
		binary.SetGray(i, 24, whiteGray)
		binary.SetGray(5, i, whiteGray)
		binary.SetGray(24, i, whiteGray)
	}
	// solid 12x12 block: more pixels than the ring
	for y := 40; y < 52; y++ {
		for x := 40; x < 52; x++ {
			binary.SetGray(x, y, whiteGray)
		}
	}

	r, ok := largestRegion(binary)
	assert.True(t, ok)
	assert.Equals(t, r, image.Rect(5, 5, 25, 25))
}

func TestPlatePreprocessorSolidImageKeepsFullFrame(t *testing.T) {
	out, err := PlatePreprocessor{}.Preprocess(solidGray(40, 30, 128))
	assert.True(t, err == nil)
	assert.Equals(t, out.Bounds().Dx(), 40)
	assert.Equals(t, out.Bounds().Dy(), 30)
	assert.True(t, onlyBinaryValues(out))
}

func TestPlatePreprocessorSyntheticFrame(t *testing.T) {
	img, err := decodeRawImage(syntheticJPEG(t, 160, 120))
	assert.True(t, err == nil)

	out, err := PlatePreprocessor{}.Preprocess(img)
	assert.True(t, err == nil)
	assert.True(t, !out.Bounds().Empty())
	assert.True(t, out.Bounds().Dx() <= 160)
	assert.True(t, out.Bounds().Dy() <= 120)
	assert.True(t, onlyBinaryValues(out))
}

func TestOtsuBinarizeTwoLevels(t *testing.T) {
	img := solidGray(10, 10, 50)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			img.Pix[img.PixOffset(x, y)] = 200
		}
	}
	out := otsuBinarize(img)
	assert.Equals(t, out.GrayAt(0, 0).Y, uint8(0))
	assert.Equals(t, out.GrayAt(9, 9).Y, uint8(255))
}

func TestNewPreprocessor(t *testing.T) {
	p, err := NewPreprocessor("")
	assert.True(t, err == nil)
	_, isPlate := p.(PlatePreprocessor)
	assert.True(t, isPlate)

	p, err = NewPreprocessor(PreprocessorIdentity)
	assert.True(t, err == nil)
	out, err := p.Preprocess(solidGray(4, 4, 77))
	assert.True(t, err == nil)
	assert.Equals(t, out.GrayAt(1, 1).Y, uint8(77))

	_, err = NewPreprocessor("stroke-width-transform")
	assert.True(t, err != nil)
}
