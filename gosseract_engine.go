//go:build gosseract

package capture

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
)

// GoTesseractEngine talks to libtesseract in-process through gosseract.
type GoTesseractEngine struct{}

func (GoTesseractEngine) Recognize(ctx context.Context, img *image.Gray, engineConfig EngineConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, "encode preprocessed image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if engineConfig.Lang != "" {
		if err := client.SetLanguage(engineConfig.Lang); err != nil {
			return "", errors.Wrap(err, "set language")
		}
	}
	if engineConfig.PageSegMode != "" {
		psm, err := strconv.Atoi(engineConfig.PageSegMode)
		if err != nil {
			return "", errors.Wrapf(err, "invalid page segmentation mode %q", engineConfig.PageSegMode)
		}
		if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
			return "", errors.Wrap(err, "set page segmentation mode")
		}
	}
	for k, v := range engineConfig.ConfigVars {
		if err := client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return "", errors.Wrapf(err, "set variable %s", k)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", errors.Wrap(err, "set image")
	}

	text, err := client.Text()
	if err != nil {
		return "", errors.Wrap(err, "recognize text")
	}
	return text, nil
}
