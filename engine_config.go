package capture

import "flag"

type EngineConfig struct {
	Lang        string
	PageSegMode string
	ConfigVars  map[string]string
	SaveFiles   bool
}

// DefaultEngineConfig reads a single uniform block of english text.
func DefaultEngineConfig() EngineConfig {

	engineConfig := EngineConfig{
		Lang:        "eng",
		PageSegMode: "6",
		SaveFiles:   false,
	}
	return engineConfig

}

type FlagFunctionEngine func()

func NoOpFlagFunctionEngine() FlagFunctionEngine {
	return func() {}
}

func DefaultConfigFlagsEngineOverride(flagFunction FlagFunctionEngine) EngineConfig {
	engineConfig := DefaultEngineConfig()

	flagFunction()
	var (
		lang        string
		pageSegMode string
		saveFiles   bool
	)
	flag.StringVar(
		&lang,
		"ocr_lang",
		"",
		"tesseract language model, eg: eng",
	)
	flag.StringVar(
		&pageSegMode,
		"ocr_psm",
		"",
		"tesseract page segmentation mode, eg: 6",
	)
	flag.BoolVar(
		&saveFiles,
		"save_files",
		false,
		"if set there will be no clean up of temporary files",
	)

	flag.Parse()
	if len(lang) > 0 {
		engineConfig.Lang = lang
	}
	if len(pageSegMode) > 0 {
		engineConfig.PageSegMode = pageSegMode
	}
	engineConfig.SaveFiles = saveFiles

	return engineConfig
}
