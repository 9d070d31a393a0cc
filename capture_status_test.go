package capture

import (
	"strings"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestCaptureStatusSnapshot(t *testing.T) {
	status := NewCaptureStatus()
	snap := status.Snapshot()
	assert.Equals(t, snap.State, ServiceRunning)
	assert.True(t, snap.LastCapture == nil)

	status.RecordFailure()
	status.RecordSuccess(LastCapture{Timestamp: "2024-05-01 10:00:00", ExtractedText: "ABC 1234"})
	status.StartDraining()

	snap = status.Snapshot()
	assert.Equals(t, snap.State, ServiceDraining)
	assert.Equals(t, snap.CapturesTotal, uint64(2))
	assert.Equals(t, snap.FailuresTotal, uint64(1))
	assert.Equals(t, snap.LastCapture.ExtractedText, "ABC 1234")
}

func TestGenerateLandingPageEscapes(t *testing.T) {
	page := GenerateLandingPage(CaptureStatusSnapshot{
		State:       ServiceDraining,
		LastCapture: &LastCapture{ExtractedText: "<script>alert(1)</script>"},
	}, testLatestImageURL)

	assert.True(t, strings.Contains(page, ServiceDraining))
	assert.True(t, strings.Contains(page, testLatestImageURL))
	assert.True(t, !strings.Contains(page, "<script>"))
	assert.True(t, strings.Contains(page, "&lt;script&gt;"))
}
