package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/disintegration/imaging"
)

// syntheticJPEG draws a light plate with dark bars on a gray background,
// roughly what the camera sends.
func syntheticJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: 90, G: 90, B: 90, A: 255}), image.Point{}, draw.Src)
	plate := image.Rect(w/4, h/3, 3*w/4, 2*h/3)
	draw.Draw(img, plate, image.NewUniform(color.White), image.Point{}, draw.Src)
	for x := plate.Min.X + 4; x+3 < plate.Max.X-4; x += 8 {
		bar := image.Rect(x, plate.Min.Y+4, x+3, plate.Max.Y-4)
		draw.Draw(img, bar, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func onlyBinaryValues(img *image.Gray) bool {
	for _, v := range img.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

var whiteGray = color.Gray{Y: 255}
