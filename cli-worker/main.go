package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xf0e/open-capture"
)

// This assumes that there is a rabbit mq running and cli-httpd started
// with -log_sink amqp

const reconnectDelay = 5 * time.Second

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	workerConfig, err := capture.DefaultConfigFlagsWorkerOverride(capture.NoOpFlagFunctionWorker())
	if err != nil {
		log.Panic().Str("component", "CAPTURE_WORKER").
			Msgf("error getting arguments: %v ", err)
	}
	if workerConfig.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ledger, err := capture.NewCsvLogAppender(workerConfig.LedgerPath)
	if err != nil {
		log.Panic().Err(err).Str("component", "CAPTURE_WORKER").Msg("could not open ledger")
	}

	// infinite loop, the worker <-> rabbitmq connection may break at any time
	for {
		log.Info().Str("component", "CAPTURE_WORKER").Msg("Creating new ledger worker")

		worker := capture.NewLogRowWorker(workerConfig.Rabbit, ledger)
		if err := worker.Run(); err != nil {
			log.Error().Err(err).Str("component", "CAPTURE_WORKER").Msg("Error running worker")
			time.Sleep(reconnectDelay)
			continue
		}

		// this happens when connection is closed
		err = <-worker.Done
		log.Error().Str("component", "CAPTURE_WORKER").Err(err).
			Msg("ledger worker failed with error")
		time.Sleep(reconnectDelay)
	}
}
