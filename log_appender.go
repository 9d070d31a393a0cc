package capture

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	LogSinkCSV  = "csv"
	LogSinkAMQP = "amqp"
)

var ledgerHeader = []string{"timestamp", "extracted_text", "image_link"}

// LogAppender appends one row per successful capture to the capture log.
type LogAppender interface {
	AppendRow(ctx context.Context, row LogRow) error
}

// CsvLogAppender writes rows to a local CSV ledger file.
type CsvLogAppender struct {
	mu   deadlock.Mutex
	path string
}

func NewCsvLogAppender(path string) (*CsvLogAppender, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.Wrapf(err, "create ledger dir %s", dir)
		}
	}
	return &CsvLogAppender{path: path}, nil
}

func (a *CsvLogAppender) Path() string {
	return a.path
}

func (a *CsvLogAppender) AppendRow(ctx context.Context, row LogRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat ledger")
	}

	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err := w.Write(ledgerHeader); err != nil {
			return errors.Wrap(err, "write ledger header")
		}
	}
	if err := w.Write(row.record()); err != nil {
		return errors.Wrap(err, "write ledger row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush ledger")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync ledger")
	}
	log.Debug().Str("component", "CAPTURE_LEDGER").Str("timestamp", row.Timestamp).
		Str("file", a.path).Msg("row appended")
	return nil
}
