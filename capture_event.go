package capture

import (
	"image"
	"strings"
	"time"
)

// TimestampLayout is the second-precision format used for capture timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Stage is a state of the per-capture pipeline.
type Stage int

const (
	StageReceived = Stage(iota)
	StageStored
	StagePreprocessed
	StageExtracted
	StageNotified
	StageAnnotated
	StageUploaded
	StageLogged
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "RECEIVED"
	case StageStored:
		return "STORED"
	case StagePreprocessed:
		return "PREPROCESSED"
	case StageExtracted:
		return "EXTRACTED"
	case StageNotified:
		return "NOTIFIED"
	case StageAnnotated:
		return "ANNOTATED"
	case StageUploaded:
		return "UPLOADED"
	case StageLogged:
		return "LOGGED"
	case StageDone:
		return "DONE"
	case StageFailed:
		return "ERROR"
	}
	return ""
}

// CaptureEvent is one full processing cycle for one inbound image. It lives
// for the duration of a single request.
type CaptureEvent struct {
	RequestID  string
	Timestamp  string
	CapturedAt time.Time
	State      Stage

	RawImage     []byte
	RawImagePath string

	ProcessedImage *image.Gray
	ExtractedText  string

	// AnnotatedImagePath is the event-scoped copy of the annotated image handed
	// to the uploader; the shared copy lives in the AnnotatedSlot.
	AnnotatedImagePath string

	UploadLink   string
	NotifyStatus error
	LogStatus    error
}

func newCaptureEvent(requestID string, now time.Time, raw []byte) *CaptureEvent {
	return &CaptureEvent{
		RequestID:  requestID,
		Timestamp:  now.Format(TimestampLayout),
		CapturedAt: now,
		State:      StageReceived,
		RawImage:   raw,
	}
}

// fileStem turns the timestamp into something safe to use in a file name.
func (ev *CaptureEvent) fileStem() string {
	return strings.NewReplacer(":", "-", " ", "_").Replace(ev.Timestamp)
}

// CaptureResponse is the success payload of the ingestion endpoint.
type CaptureResponse struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	ExtractedText     string `json:"extracted_text"`
	ImageDriveLink    string `json:"image_drive_link"`
	AnnotatedImageURL string `json:"annotated_image_url"`
}

// ErrorResponse is the failure payload of the ingestion endpoint.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CaptureResult is what the pipeline hands back to the HTTP layer.
type CaptureResult struct {
	HTTPStatus int
	Event      *CaptureEvent
	Err        *StageError
	Response   interface{}
}

// LogRow is the record appended to the capture log.
type LogRow struct {
	Timestamp     string `json:"timestamp"`
	ExtractedText string `json:"extracted_text"`
	ImageLink     string `json:"image_link"`
}

func (r LogRow) record() []string {
	return []string{r.Timestamp, r.ExtractedText, r.ImageLink}
}
