//go:build !gocv

package capture

import "github.com/pkg/errors"

func newOpenCVPreprocessor() (Preprocessor, error) {
	return nil, errors.New("opencv preprocessor requires a build with -tags gocv")
}
