package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	overlayMargin   = 20
	overlayPadding  = 5
	overlayFontSize = 64
	jpegQuality     = 95
)

var (
	overlayTextColor       = color.RGBA{G: 255, A: 255}
	overlayBackgroundColor = color.RGBA{A: 255}

	overlayFontOnce sync.Once
	overlayFont     *opentype.Font
	overlayFontErr  error
)

// loadOverlayFont parses the embedded Go Regular font once per process.
func loadOverlayFont() (*opentype.Font, error) {
	overlayFontOnce.Do(func() {
		overlayFont, overlayFontErr = opentype.Parse(goregular.TTF)
	})
	return overlayFont, overlayFontErr
}

// AnnotatedImage is the rendered overlay of one capture.
type AnnotatedImage struct {
	// Path is the singleton location the image was published to.
	Path string
	Data []byte
	Box  image.Rectangle
}

// Annotator draws the extracted text onto the original camera frame.
type Annotator struct {
	slot *AnnotatedSlot
}

func NewAnnotator(slot *AnnotatedSlot) *Annotator {
	return &Annotator{slot: slot}
}

// Annotate renders text onto raw and publishes the result to the singleton
// slot. The only failure for a decodable image is a slot write error. Empty
// text draws nothing, not even the background box, and Box is then empty.
func (a *Annotator) Annotate(raw []byte, text string) (*AnnotatedImage, error) {
	data, box, err := renderOverlay(raw, text)
	if err != nil {
		return nil, err
	}
	if err := a.slot.Publish(data); err != nil {
		return nil, errors.Wrap(err, "publish annotated image")
	}
	return &AnnotatedImage{Path: a.slot.Path(), Data: data, Box: box}, nil
}

// RenderOverlay draws text onto raw and returns the JPEG without publishing it.
func RenderOverlay(raw []byte, text string) ([]byte, error) {
	data, _, err := renderOverlay(raw, text)
	return data, err
}

func renderOverlay(raw []byte, text string) ([]byte, image.Rectangle, error) {
	src, err := decodeRawImage(raw)
	if err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "decode raw image")
	}
	dst := imaging.Clone(src)

	var box image.Rectangle
	if text != "" {
		f, err := loadOverlayFont()
		if err != nil {
			return nil, image.Rectangle{}, errors.Wrap(err, "load overlay font")
		}
		// faces keep glyph caches and are not safe for concurrent use
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    overlayFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, image.Rectangle{}, errors.Wrap(err, "create overlay face")
		}
		defer face.Close()

		metrics := face.Metrics()
		textWidth := font.MeasureString(face, text).Ceil()
		origin, b := overlayPlacement(dst.Bounds(), textWidth, metrics.Ascent.Ceil(), metrics.Descent.Ceil())
		box = b

		draw.Draw(dst, box, image.NewUniform(overlayBackgroundColor), image.Point{}, draw.Src)
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(overlayTextColor),
			Face: face,
			Dot:  fixed.P(origin.X, origin.Y),
		}
		d.DrawString(text)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, image.Rectangle{}, errors.Wrap(err, "encode annotated image")
	}
	return buf.Bytes(), box, nil
}

// overlayPlacement puts a text footprint of textWidth x textHeight (plus
// baseline descent) in the bottom-right corner of bounds with a fixed margin.
// It returns the text origin on the baseline and the padded background box,
// clamped to bounds.
func overlayPlacement(bounds image.Rectangle, textWidth, textHeight, baseline int) (image.Point, image.Rectangle) {
	x := bounds.Max.X - textWidth - overlayMargin
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	y := bounds.Max.Y - overlayMargin

	box := image.Rect(
		x-overlayPadding,
		y-textHeight-overlayPadding,
		x+textWidth+overlayPadding,
		y+baseline+overlayPadding,
	).Intersect(bounds)
	return image.Pt(x, y), box
}
