package capture

import (
	"bytes"
	"image"
	"testing"

	"github.com/couchbaselabs/go.assert"
	"github.com/disintegration/imaging"
)

func TestOverlayPlacementStaysInsideImage(t *testing.T) {
	widths := []int{40, 100, 640, 1920}
	heights := []int{40, 100, 480, 1080}
	textWidths := []int{0, 10, 300, 2000}
	const textHeight, baseline = 48, 14

	for _, w := range widths {
		for _, h := range heights {
			for _, tw := range textWidths {
				bounds := image.Rect(0, 0, w, h)
				origin, box := overlayPlacement(bounds, tw, textHeight, baseline)

				assert.True(t, origin.X >= 0)
				assert.Equals(t, origin.Y, h-overlayMargin)
				assert.True(t, !box.Empty())
				assert.True(t, box.In(bounds))
				assert.True(t, box.Max.X >= w-overlayMargin)
				assert.True(t, box.Max.Y >= h-overlayMargin)
			}
		}
	}
}

func TestOverlayPlacementBottomRight(t *testing.T) {
	origin, box := overlayPlacement(image.Rect(0, 0, 640, 480), 200, 48, 14)
	assert.Equals(t, origin, image.Pt(420, 460))
	assert.Equals(t, box, image.Rect(415, 407, 625, 479))
}

func TestRenderOverlayDrawsBackground(t *testing.T) {
	raw := syntheticJPEG(t, 640, 480)
	data, box, err := renderOverlay(raw, "ABC 1234")
	assert.True(t, err == nil)
	assert.True(t, !box.Empty())

	img, err := imaging.Decode(bytes.NewReader(data))
	assert.True(t, err == nil)
	assert.Equals(t, img.Bounds().Dx(), 640)
	assert.Equals(t, img.Bounds().Dy(), 480)

	// the padding band above the glyphs is plain background
	r, g, b, _ := img.At(box.Min.X+2, box.Min.Y+2).RGBA()
	assert.True(t, r>>8 < 40 && g>>8 < 40 && b>>8 < 40)
}

func TestRenderOverlayEmptyTextLeavesImage(t *testing.T) {
	raw := syntheticJPEG(t, 120, 90)
	data, box, err := renderOverlay(raw, "")
	assert.True(t, err == nil)
	assert.True(t, box.Empty())

	img, err := imaging.Decode(bytes.NewReader(data))
	assert.True(t, err == nil)
	assert.Equals(t, img.Bounds().Dx(), 120)
	assert.Equals(t, img.Bounds().Dy(), 90)
}

func TestAnnotateCorruptImage(t *testing.T) {
	annotator := NewAnnotator(NewAnnotatedSlot(t.TempDir()))
	_, err := annotator.Annotate([]byte("definitely not a jpeg"), "ABC 1234")
	assert.True(t, err != nil)
}

func TestAnnotatePublishesToSlot(t *testing.T) {
	slot := NewAnnotatedSlot(t.TempDir())
	annotator := NewAnnotator(slot)

	annotated, err := annotator.Annotate(syntheticJPEG(t, 320, 240), "ABC 1234")
	assert.True(t, err == nil)
	assert.Equals(t, annotated.Path, slot.Path())

	content, _, err := slot.Read()
	assert.True(t, err == nil)
	stored := make([]byte, content.Len())
	_, _ = content.Read(stored)
	assert.True(t, bytes.Equal(stored, annotated.Data))
}
