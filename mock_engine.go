package capture

import (
	"context"
	"image"
)

const MockEngineResponse = "mock engine decoder response"

// MockEngine answers every request with Text, or MockEngineResponse when
// Text is empty. Err, when set, is returned instead.
type MockEngine struct {
	Text string
	Err  error
}

func (m MockEngine) Recognize(ctx context.Context, img *image.Gray, engineConfig EngineConfig) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Text == "" {
		return MockEngineResponse, nil
	}
	return m.Text, nil
}
