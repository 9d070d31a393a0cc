package capture

import (
	"context"
	"encoding/json"
	"image"
	"strings"

	"github.com/pkg/errors"
)

type OcrEngineType int

const (
	EngineTesseract = OcrEngineType(iota)
	EngineGoTesseract
	EngineMock
)

// OcrEngine reads the raw text out of a preprocessed image.
type OcrEngine interface {
	Recognize(ctx context.Context, img *image.Gray, engineConfig EngineConfig) (string, error)
}

func NewOcrEngine(engineType OcrEngineType) OcrEngine {
	switch engineType {
	case EngineMock:
		return &MockEngine{}
	case EngineTesseract:
		return &TesseractEngine{}
	case EngineGoTesseract:
		return &GoTesseractEngine{}
	}
	return nil
}

func (e OcrEngineType) String() string {
	switch e {
	case EngineMock:
		return "ENGINE_MOCK"
	case EngineTesseract:
		return "ENGINE_TESSERACT"
	case EngineGoTesseract:
		return "ENGINE_GO_TESSERACT"
	}
	return ""
}

// ParseOcrEngineType maps a configuration value onto an engine type. The mock
// engine is only returned when asked for by name.
func ParseOcrEngineType(engineTypeStr string) (OcrEngineType, error) {
	engineString := strings.ToUpper(strings.TrimSpace(engineTypeStr))
	switch engineString {
	case "TESSERACT", "ENGINE_TESSERACT":
		return EngineTesseract, nil
	case "GO_TESSERACT", "GOSSERACT", "ENGINE_GO_TESSERACT":
		return EngineGoTesseract, nil
	case "MOCK", "ENGINE_MOCK":
		return EngineMock, nil
	}
	return EngineTesseract, errors.Errorf("unknown ocr engine %q, expected TESSERACT, GO_TESSERACT or MOCK", engineTypeStr)
}

func (e *OcrEngineType) UnmarshalJSON(b []byte) (err error) {

	var engineTypeStr string

	if err := json.Unmarshal(b, &engineTypeStr); err == nil {
		engineType, err := ParseOcrEngineType(engineTypeStr)
		if err != nil {
			return err
		}
		*e = engineType
		return nil
	}

	// not a string .. maybe it's an int

	var engineTypeInt int
	if err := json.Unmarshal(b, &engineTypeInt); err != nil {
		return err
	}
	*e = OcrEngineType(engineTypeInt)
	return nil

}
