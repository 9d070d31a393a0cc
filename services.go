package capture

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles everything cli-httpd needs to serve captures.
type Services struct {
	Pipeline *Pipeline
	Slot     *AnnotatedSlot
	Status   *CaptureStatus

	closers []func() error
}

// BuildServices creates the process wide service handles from cfg.
func BuildServices(ctx context.Context, cfg ServerConfig) (*Services, error) {
	store, err := NewRawImageStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	slot := NewAnnotatedSlot(cfg.UploadDir)
	status := NewCaptureStatus()

	preprocessor, err := NewPreprocessor(cfg.Preprocessor)
	if err != nil {
		return nil, err
	}
	engine := NewOcrEngine(cfg.EngineType)
	if engine == nil {
		return nil, errors.Errorf("no ocr engine for type %d", cfg.EngineType)
	}

	var notifier DeviceNotifier
	if cfg.DeviceURL != "" {
		n, err := NewHttpDeviceNotifier(cfg.DeviceURL, cfg.DeviceTimeout)
		if err != nil {
			return nil, err
		}
		notifier = n
	} else {
		log.Info().Str("component", "CAPTURE_SERVICES").Msg("no device_url configured, device notification disabled")
	}

	uploader := NewS3Uploader(cfg.S3)
	if cfg.S3.CreateBucket {
		if err := uploader.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("component", "CAPTURE_SERVICES").Msg("failed to ensure bucket exists")
		}
	}

	s := &Services{Slot: slot, Status: status}

	var appender LogAppender
	switch cfg.LogSink {
	case LogSinkAMQP:
		a := NewAmqpLogAppender(cfg.Rabbit)
		s.closers = append(s.closers, a.Close)
		appender = a
	default:
		a, err := NewCsvLogAppender(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		appender = a
	}

	s.Pipeline = NewPipeline(PipelineServices{
		Store:          store,
		Preprocessor:   preprocessor,
		Extractor:      NewTextExtractor(engine, cfg.Engine),
		Notifier:       notifier,
		Annotator:      NewAnnotator(slot),
		Uploader:       uploader,
		Appender:       appender,
		Status:         status,
		FolderID:       cfg.S3.FolderID,
		LatestImageURL: cfg.LatestImageURL(),
		SinkTimeout:    cfg.SinkTimeout,
	})
	log.Info().Str("component", "CAPTURE_SERVICES").Str("preprocessor", cfg.Preprocessor).
		Str("engine", cfg.EngineType.String()).Str("log_sink", cfg.LogSink).
		Str("bucket", cfg.S3.Bucket).Msg("services ready")
	return s, nil
}

func (s *Services) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
