package capture

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorKind classifies the failures a capture can run into.
type ErrorKind int

const (
	IngestError = ErrorKind(iota + 1)
	StorageError
	ImageDecodeError
	OCRError
	AnnotationError
	UploadError
	LogError
	NotifyTimeout
	NotifyError
)

func (k ErrorKind) String() string {
	switch k {
	case IngestError:
		return "IngestError"
	case StorageError:
		return "StorageError"
	case ImageDecodeError:
		return "ImageDecodeError"
	case OCRError:
		return "OCRError"
	case AnnotationError:
		return "AnnotationError"
	case UploadError:
		return "UploadError"
	case LogError:
		return "LogError"
	case NotifyTimeout:
		return "NotifyTimeout"
	case NotifyError:
		return "NotifyError"
	}
	return "UnknownError"
}

// HTTPStatus is the status code used when this kind reaches the caller.
func (k ErrorKind) HTTPStatus() int {
	if k == IngestError {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// StageError is the error every pipeline stage returns on failure.
type StageError struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

func newStageError(kind ErrorKind, stage Stage, err error, msg string) *StageError {
	if err == nil {
		err = errors.New(msg)
	} else {
		err = errors.Wrap(err, msg)
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Cause keeps pkg/errors.Cause walking through stage errors.
func (e *StageError) Cause() error { return e.Err }

// KindOf extracts the ErrorKind from err, if err carries one.
func KindOf(err error) (ErrorKind, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind, true
	}
	return 0, false
}
