package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestCreateTempFileName(t *testing.T) {
	assert.Equals(t, createTempFileName("frame.png"), filepath.Join(os.TempDir(), "frame.png"))

	first := createTempFileName("")
	second := createTempFileName("")
	assert.Equals(t, filepath.Dir(first), filepath.Clean(os.TempDir()))
	assert.True(t, first != second)
}
