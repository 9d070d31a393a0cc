//go:build !gosseract

package capture

import (
	"context"
	"image"

	"github.com/pkg/errors"
)

// GoTesseractEngine is only functional in builds with -tags gosseract.
type GoTesseractEngine struct{}

func (GoTesseractEngine) Recognize(ctx context.Context, img *image.Gray, engineConfig EngineConfig) (string, error) {
	return "", errors.New("go_tesseract engine requires a build with -tags gosseract")
}
