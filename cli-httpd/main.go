package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xf0e/open-capture"
)

// To test it:
// curl -X POST --data-binary @car.jpg -H "Content-Type: image/jpeg" http://localhost:8080/capture

const shutdownTimeout = 10 * time.Second

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	serverConfig, err := capture.DefaultConfigFlagsServerOverride(capture.NoOpFlagFunctionServer())
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Msg("invalid configuration")
	}
	if serverConfig.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	services, err := capture.BuildServices(ctx, serverConfig)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Msg("could not build services")
	}
	defer services.Close()

	listenAddr := fmt.Sprintf(":%d", serverConfig.HttpPort)
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           capture.NewCaptureMux(services, serverConfig.MaxUploadSize, serverConfig.LatestImageURL()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Str("component", "CLI_HTTP").
			Msg("Caught signal to terminate, will not accept any further captures")
		services.Status.StartDraining()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("component", "CLI_HTTP").Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("component", "CLI_HTTP").Str("listenAddr", listenAddr).Msg("Starting listener...")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Str("component", "CLI_HTTP").Caller().Msg("cli_http has failed to start")
	}
	log.Info().Str("component", "CLI_HTTP").Msg("http daemon stopped")
}
