package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchbaselabs/go.assert"
)

func TestRawImageStoreSameSecondCaptures(t *testing.T) {
	store, err := NewRawImageStore(filepath.Join(t.TempDir(), "uploads"))
	assert.True(t, err == nil)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	first, err := store.Save(newCaptureEvent("one", now, raw))
	assert.True(t, err == nil)
	second, err := store.Save(newCaptureEvent("two", now, raw))
	assert.True(t, err == nil)

	assert.True(t, first != second)
	for _, path := range []string{first, second} {
		name := filepath.Base(path)
		assert.True(t, strings.HasPrefix(name, "vehicle_2024-05-01_10-00-00_"))
		assert.True(t, strings.HasSuffix(name, ".jpg"))
		assert.True(t, !strings.Contains(name, ":"))
		data, err := os.ReadFile(path)
		assert.True(t, err == nil)
		assert.Equals(t, len(data), len(raw))
	}
}

func TestRawImageStoreExtensionFromMagicBytes(t *testing.T) {
	store, err := NewRawImageStore(t.TempDir())
	assert.True(t, err == nil)
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
	path, err := store.Save(newCaptureEvent("png", time.Now(), png))
	assert.True(t, err == nil)
	assert.Equals(t, filepath.Ext(path), ".png")
}
