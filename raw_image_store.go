package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// RawImageStore keeps every received frame as it came off the wire.
type RawImageStore struct {
	dir string
}

func NewRawImageStore(dir string) (*RawImageStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &RawImageStore{dir: dir}, nil
}

func (s *RawImageStore) Dir() string {
	return s.dir
}

// Save writes ev.RawImage under a name derived from the capture timestamp
// and returns the path. A ksuid suffix keeps captures of the same second apart.
func (s *RawImageStore) Save(ev *CaptureEvent) (string, error) {
	ext := extensionForFileType(detectFileType(ev.RawImage))
	name := fmt.Sprintf("vehicle_%s_%s%s", ev.fileStem(), ksuid.New().String(), ext)
	path := filepath.Join(s.dir, name)
	if err := saveBytesToFileName(ev.RawImage, path); err != nil {
		return "", errors.Wrapf(err, "store raw image %s", name)
	}
	return path, nil
}
