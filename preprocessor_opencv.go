//go:build gocv

package capture

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// OpenCVPreprocessor runs the plate preprocessing steps through OpenCV.
type OpenCVPreprocessor struct{}

func newOpenCVPreprocessor() (Preprocessor, error) {
	return OpenCVPreprocessor{}, nil
}

func (OpenCVPreprocessor) Preprocess(img image.Image) (*image.Gray, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert image to mat")
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, adaptiveBlockSize, adaptiveC)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	cropped := gray
	if contours.Size() > 0 {
		best, bestArea := 0, -1.0
		for i := 0; i < contours.Size(); i++ {
			if area := gocv.ContourArea(contours.At(i)); area > bestArea {
				best, bestArea = i, area
			}
		}
		region := gray.Region(gocv.BoundingRect(contours.At(best)))
		defer region.Close()
		cropped = region
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(cropped, &binary, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	out, err := binary.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert mat to image")
	}
	return toGray(out), nil
}
