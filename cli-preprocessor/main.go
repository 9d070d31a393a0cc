package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xf0e/open-capture"
)

// Runs the capture preprocessing and OCR on a local image, handy to check
// what the service would read from a camera frame:
// cli-preprocessor -file car.jpg -out car_binary.png -engine TESSERACT

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	var (
		inFile       string
		outFile      string
		preprocessor string
		engine       string
		annotated    string
	)
	flagFunc := func() {
		flag.StringVar(&inFile, "file", "", "image to process")
		flag.StringVar(&outFile, "out", "", "if set, the preprocessed image is written here as png")
		flag.StringVar(&annotated, "annotated", "", "if set, the annotated image is written here as jpeg")
		flag.StringVar(
			&preprocessor,
			"preprocessor",
			capture.PreprocessorPlate,
			"The preprocessor to use: plate, identity or opencv",
		)
		flag.StringVar(&engine, "engine", "TESSERACT", "OCR engine: TESSERACT, GO_TESSERACT or MOCK")
	}
	engineConfig := capture.DefaultConfigFlagsEngineOverride(flagFunc)

	if inFile == "" {
		log.Fatal().Str("component", "CLI_PREPROCESSOR").Msg("-file is required")
	}
	raw, err := os.ReadFile(inFile)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("could not read input")
	}

	p, err := capture.NewPreprocessor(preprocessor)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("unknown preprocessor")
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("could not decode input")
	}
	binary, err := p.Preprocess(img)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("preprocessing failed")
	}
	if outFile != "" {
		if err := imaging.Save(binary, outFile); err != nil {
			log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("could not write output")
		}
	}

	engineType, err := capture.ParseOcrEngineType(engine)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("unknown engine")
	}
	extractor := capture.NewTextExtractor(capture.NewOcrEngine(engineType), engineConfig)
	text, err := extractor.Extract(context.Background(), binary)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("ocr failed")
	}

	if annotated != "" {
		data, err := capture.RenderOverlay(raw, text)
		if err != nil {
			log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("annotation failed")
		}
		if err := os.WriteFile(annotated, data, 0600); err != nil {
			log.Fatal().Err(err).Str("component", "CLI_PREPROCESSOR").Msg("could not write annotated image")
		}
	}
	fmt.Println(text)
}
