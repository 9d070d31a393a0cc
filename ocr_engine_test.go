package capture

import (
	"encoding/json"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestOcrEngineTypeJson(t *testing.T) {
	cases := map[string]OcrEngineType{
		`{"engine":"tesseract"}`:           EngineTesseract,
		`{"engine":"ENGINE_GO_TESSERACT"}`: EngineGoTesseract,
		`{"engine":"mock"}`:                EngineMock,
		`{"engine":2}`:                     EngineMock,
	}
	for testJson, expected := range cases {
		config := struct {
			Engine OcrEngineType `json:"engine"`
		}{}
		err := json.Unmarshal([]byte(testJson), &config)
		assert.True(t, err == nil)
		assert.Equals(t, config.Engine, expected)
	}
}

func TestNewOcrEngine(t *testing.T) {
	_, isTesseract := NewOcrEngine(EngineTesseract).(*TesseractEngine)
	assert.True(t, isTesseract)
	_, isMock := NewOcrEngine(EngineMock).(*MockEngine)
	assert.True(t, isMock)
	assert.True(t, NewOcrEngine(OcrEngineType(42)) == nil)
	engineType, err := ParseOcrEngineType(EngineGoTesseract.String())
	assert.True(t, err == nil)
	assert.Equals(t, engineType, EngineGoTesseract)
}

func TestOcrEngineTypeUnknownName(t *testing.T) {
	for _, name := range []string{"", "tesseract-ocr", "sandwich", "mocks"} {
		_, err := ParseOcrEngineType(name)
		assert.True(t, err != nil)
	}

	config := struct {
		Engine OcrEngineType `json:"engine"`
	}{Engine: EngineTesseract}
	err := json.Unmarshal([]byte(`{"engine":"no-such-engine"}`), &config)
	assert.True(t, err != nil)
	assert.Equals(t, config.Engine, EngineTesseract)
}
