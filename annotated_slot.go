package capture

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

const LatestAnnotatedFileName = "latest_vehicle_annotated.jpg"

// ErrNoLatestImage is returned by Read before the first successful publish.
var ErrNoLatestImage = errors.New("no annotated image available yet")

// AnnotatedSlot holds the single most recent annotated image on disk. Writes
// are serialized and land atomically, readers never see a partial file.
type AnnotatedSlot struct {
	mu      deadlock.RWMutex
	dir     string
	path    string
	modTime time.Time
}

func NewAnnotatedSlot(dir string) *AnnotatedSlot {
	return &AnnotatedSlot{
		dir:  dir,
		path: filepath.Join(dir, LatestAnnotatedFileName),
	}
}

func (s *AnnotatedSlot) Path() string {
	return s.path
}

// Publish replaces the slot content with data.
func (s *AnnotatedSlot) Publish(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".annotated-*.jpg")
	if err != nil {
		return errors.Wrap(err, "create slot temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "write slot temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "sync slot temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "close slot temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "rename slot temp file")
	}
	s.modTime = time.Now()
	return nil
}

// Read returns the current slot content and the time it was published.
func (s *AnnotatedSlot) Read() (*bytes.Reader, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, ErrNoLatestImage
	}
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "read annotated slot")
	}
	modTime := s.modTime
	if modTime.IsZero() {
		// left over from a previous process
		if fi, statErr := os.Stat(s.path); statErr == nil {
			modTime = fi.ModTime()
		}
	}
	return bytes.NewReader(data), modTime, nil
}
