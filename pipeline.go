package capture

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type failurePolicy int

const (
	// abortOnFailure ends the capture with an error response.
	abortOnFailure = failurePolicy(iota)
	// swallowFailure logs the failure and carries on.
	swallowFailure
)

// stagePolicies is consulted after every stage that did not succeed.
var stagePolicies = map[Stage]failurePolicy{
	StageStored:       abortOnFailure,
	StagePreprocessed: abortOnFailure,
	StageExtracted:    abortOnFailure,
	StageNotified:     swallowFailure,
	StageAnnotated:    abortOnFailure,
	StageUploaded:     abortOnFailure,
	StageLogged:       abortOnFailure,
}

const (
	outcomeOK       = "ok"
	outcomeSkipped  = "skipped"
	outcomeSoftFail = "soft_fail"
	outcomeHardFail = "hard_fail"
)

// errStageSkipped marks a stage that had nothing to do.
var errStageSkipped = errors.New("stage skipped")

type captureStage struct {
	stage Stage
	run   func(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error
}

// PipelineServices are the long lived handles a Pipeline works with. They are
// built once at startup and shared by all captures.
type PipelineServices struct {
	Store        *RawImageStore
	Preprocessor Preprocessor
	Extractor    *TextExtractor
	// Notifier may be nil, the notify stage is skipped then.
	Notifier       DeviceNotifier
	Annotator      *Annotator
	Uploader       CloudUploader
	Appender       LogAppender
	Status         *CaptureStatus
	FolderID       string
	LatestImageURL string
	SinkTimeout    time.Duration
}

// Pipeline runs one capture through all stages and turns the outcome into a
// response. It is safe for concurrent use.
type Pipeline struct {
	PipelineServices
	stages []captureStage
	now    func() time.Time
}

func NewPipeline(services PipelineServices) *Pipeline {
	if services.Status == nil {
		services.Status = NewCaptureStatus()
	}
	if services.SinkTimeout <= 0 {
		services.SinkTimeout = DefaultServerConfig().SinkTimeout
	}
	p := &Pipeline{PipelineServices: services, now: time.Now}
	p.stages = []captureStage{
		{StageStored, p.storeRaw},
		{StagePreprocessed, p.preprocess},
		{StageExtracted, p.extract},
		{StageNotified, p.notify},
		{StageAnnotated, p.annotate},
		{StageUploaded, p.upload},
		{StageLogged, p.appendLog},
	}
	return p
}

// HandleCapture processes raw camera bytes. Failures never escape as errors,
// they are part of the result.
func (p *Pipeline) HandleCapture(ctx context.Context, raw []byte) CaptureResult {
	ev := newCaptureEvent(uuid.NewString(), p.now(), raw)
	logger := log.With().Str("component", "CAPTURE_PIPELINE").Str("RequestID", ev.RequestID).Logger()
	defer timeTrack(time.Now(), "capture", "capture handled", ev.RequestID)
	defer p.cleanupEvent(ev)

	logger.Info().Str("timestamp", ev.Timestamp).Int("size", len(raw)).Msg("capture received")

	for _, s := range p.stages {
		start := time.Now()
		err := s.run(ctx, ev, logger)
		outcome := resolveStage(s.stage, err)
		observeStage(s.stage, outcome)
		logger.Debug().Str("stage", s.stage.String()).Str("outcome", outcome).
			Dur("duration", time.Since(start)).Msg("stage finished")

		switch outcome {
		case outcomeOK:
			ev.State = s.stage
		case outcomeSkipped:
		case outcomeSoftFail:
			logger.Warn().Err(err).Str("stage", s.stage.String()).Msg("stage failed, continuing")
		case outcomeHardFail:
			return p.failure(ev, asStageError(s.stage, err), logger)
		}
	}

	ev.State = StageDone
	p.Status.RecordSuccess(LastCapture{
		Timestamp:         ev.Timestamp,
		ExtractedText:     ev.ExtractedText,
		ImageLink:         ev.UploadLink,
		AnnotatedImageURL: p.LatestImageURL,
	})
	logger.Info().Str("text", ev.ExtractedText).Str("link", ev.UploadLink).Msg("capture done")

	return CaptureResult{
		HTTPStatus: http.StatusOK,
		Event:      ev,
		Response: CaptureResponse{
			Status:            "success",
			Timestamp:         ev.Timestamp,
			ExtractedText:     ev.ExtractedText,
			ImageDriveLink:    ev.UploadLink,
			AnnotatedImageURL: p.LatestImageURL,
		},
	}
}

// resolveStage applies the stage policy table to a stage result.
func resolveStage(stage Stage, err error) string {
	if err == nil {
		return outcomeOK
	}
	if errors.Is(err, errStageSkipped) {
		return outcomeSkipped
	}
	if stagePolicies[stage] == swallowFailure {
		return outcomeSoftFail
	}
	return outcomeHardFail
}

func asStageError(stage Stage, err error) *StageError {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}
	return &StageError{Kind: StorageError, Stage: stage, Err: err}
}

func (p *Pipeline) failure(ev *CaptureEvent, stageErr *StageError, logger zerolog.Logger) CaptureResult {
	ev.State = StageFailed
	p.Status.RecordFailure()
	logger.Error().Err(stageErr.Err).Str("kind", stageErr.Kind.String()).
		Str("stage", stageErr.Stage.String()).Msg("capture failed")
	return CaptureResult{
		HTTPStatus: stageErr.Kind.HTTPStatus(),
		Event:      ev,
		Err:        stageErr,
		Response: ErrorResponse{
			Status:  "error",
			Message: stageErr.Error(),
		},
	}
}

// sinkContext detaches sink calls from the caller so a dropped client
// connection does not abort an upload or a log append halfway.
func (p *Pipeline) sinkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), p.SinkTimeout)
}

func (p *Pipeline) storeRaw(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	if len(ev.RawImage) == 0 {
		return newStageError(IngestError, StageReceived, nil, "empty image payload")
	}
	path, err := p.Store.Save(ev)
	if err != nil {
		return newStageError(StorageError, StageStored, err, "could not store raw image")
	}
	ev.RawImagePath = path
	logger.Debug().Str("file", path).Msg("raw image stored")
	return nil
}

func (p *Pipeline) preprocess(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	img, err := decodeRawImage(ev.RawImage)
	if err != nil {
		return newStageError(ImageDecodeError, StagePreprocessed, err, "could not decode image")
	}
	processed, err := p.Preprocessor.Preprocess(img)
	if err != nil {
		return newStageError(ImageDecodeError, StagePreprocessed, err, "could not preprocess image")
	}
	ev.ProcessedImage = processed
	return nil
}

func (p *Pipeline) extract(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	text, err := p.Extractor.Extract(ctx, ev.ProcessedImage)
	if err != nil {
		return newStageError(OCRError, StageExtracted, err, "text extraction failed")
	}
	ev.ExtractedText = text
	logger.Info().Str("text", text).Msg("text extracted")
	return nil
}

func (p *Pipeline) notify(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	if p.Notifier == nil {
		return errStageSkipped
	}
	// the notifier enforces its own, shorter deadline
	if err := p.Notifier.Notify(context.WithoutCancel(ctx), ev.ExtractedText); err != nil {
		ev.NotifyStatus = newStageError(notifyErrorKind(err), StageNotified, err, "device notification failed")
		return ev.NotifyStatus
	}
	return nil
}

func (p *Pipeline) annotate(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	annotated, err := p.Annotator.Annotate(ev.RawImage, ev.ExtractedText)
	if err != nil {
		return newStageError(AnnotationError, StageAnnotated, err, "annotation failed")
	}

	// the uploader gets its own copy, the shared slot may be overwritten by
	// the next capture before the upload is done
	path := annotatedEventPath(ev.RawImagePath)
	if err := saveBytesToFileName(annotated.Data, path); err != nil {
		return newStageError(AnnotationError, StageAnnotated, err, "could not write annotated image")
	}
	ev.AnnotatedImagePath = path
	logger.Debug().Str("file", path).Str("slot", annotated.Path).Msg("annotated image written")
	return nil
}

func (p *Pipeline) upload(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	sinkCtx, cancel := p.sinkContext(ctx)
	defer cancel()
	link, err := p.Uploader.Upload(sinkCtx, ev.AnnotatedImagePath, p.FolderID)
	if err != nil {
		return newStageError(UploadError, StageUploaded, err, "upload failed")
	}
	ev.UploadLink = link
	return nil
}

func (p *Pipeline) appendLog(ctx context.Context, ev *CaptureEvent, logger zerolog.Logger) error {
	sinkCtx, cancel := p.sinkContext(ctx)
	defer cancel()
	row := LogRow{Timestamp: ev.Timestamp, ExtractedText: ev.ExtractedText, ImageLink: ev.UploadLink}
	if err := p.Appender.AppendRow(sinkCtx, row); err != nil {
		ev.LogStatus = newStageError(LogError, StageLogged, err, "log append failed")
		return ev.LogStatus
	}
	return nil
}

func (p *Pipeline) cleanupEvent(ev *CaptureEvent) {
	if ev.AnnotatedImagePath != "" {
		removeFile(ev.AnnotatedImagePath, "CAPTURE_PIPELINE")
	}
}

// annotatedEventPath derives the per-capture annotated file from the raw file,
// eg vehicle_2024-05-01_10-00-00_<ksuid>.jpg -> ..._<ksuid>_annotated.jpg
func annotatedEventPath(rawPath string) string {
	base := strings.TrimSuffix(filepath.Base(rawPath), filepath.Ext(rawPath))
	return filepath.Join(os.TempDir(), base+"_annotated.jpg")
}
