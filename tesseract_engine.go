package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// This variant of the TesseractEngine calls tesseract via exec
type TesseractEngine struct {
}

type TesseractEngineArgs struct {
	configVars  map[string]string
	pageSegMode string
	lang        string
	saveFiles   bool
}

func NewTesseractEngineArgs(engineConfig EngineConfig) *TesseractEngineArgs {
	return &TesseractEngineArgs{
		configVars:  engineConfig.ConfigVars,
		pageSegMode: engineConfig.PageSegMode,
		lang:        engineConfig.Lang,
		saveFiles:   engineConfig.SaveFiles,
	}
}

// return a slice that can be passed to tesseract binary as command line
// args, eg, ["-c", "tessedit_char_whitelist=0123456789", "--psm", "6", "-l", "eng"]
func (t TesseractEngineArgs) Export() []string {
	var result []string
	keys := make([]string, 0, len(t.configVars))
	for k := range t.configVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result = append(result, "-c", fmt.Sprintf("%s=%s", k, t.configVars[k]))
	}
	if t.pageSegMode != "" {
		result = append(result, "--psm", t.pageSegMode)
	}
	if t.lang != "" {
		result = append(result, "-l", t.lang)
	}

	return result
}

func (t TesseractEngine) Recognize(ctx context.Context, img *image.Gray, engineConfig EngineConfig) (string, error) {

	engineArgs := NewTesseractEngineArgs(engineConfig)

	tmpFileName := createTempFileName("") + ".png"

	// tesseract reads from disk, so the preprocessed frame goes to a temp file
	if err := imaging.Save(img, tmpFileName); err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_TESSERACT").Msg("error writing preprocessed image")
		return "", errors.Wrap(err, "write preprocessed image")
	}
	if !engineArgs.saveFiles {
		defer removeFile(tmpFileName, "CAPTURE_TESSERACT")
	}

	return t.processImageFile(ctx, tmpFileName, *engineArgs)
}

func (t TesseractEngine) processImageFile(ctx context.Context, inputFilename string, engineArgs TesseractEngineArgs) (string, error) {

	// if the input filename is /tmp/ocrimage.png, set the output file basename
	// to /tmp/ocrimage.png as well, which will produce /tmp/ocrimage.png.txt output
	tmpOutFileBaseName := inputFilename

	cmdArgs := []string{inputFilename, tmpOutFileBaseName}
	cmdArgs = append(cmdArgs, engineArgs.Export()...)
	log.Debug().Str("component", "CAPTURE_TESSERACT").Strs("cmdArgs", cmdArgs).Msg("exec tesseract")

	cmd := exec.CommandContext(ctx, "tesseract", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_TESSERACT").Msg(string(output))
		return "", errors.Wrap(err, "exec tesseract")
	}

	outFile := tmpOutFileBaseName + ".txt"
	if !engineArgs.saveFiles {
		defer removeFile(outFile, "CAPTURE_TESSERACT")
	}
	outBytes, err := os.ReadFile(outFile)
	if err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_TESSERACT").
			Str("file_name", outFile).Msg("Error getting data from out file")
		return "", errors.Wrap(err, "read tesseract output")
	}

	return string(outBytes), nil

}
