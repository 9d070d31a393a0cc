package capture

import (
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
)

const (
	ServiceRunning  = "RUNNING"
	ServiceDraining = "DRAINING"
)

// LastCapture describes the newest capture that went through all stages.
type LastCapture struct {
	Timestamp         string `json:"timestamp"`
	ExtractedText     string `json:"extracted_text"`
	ImageLink         string `json:"image_link"`
	AnnotatedImageURL string `json:"annotated_image_url"`
}

type CaptureStatusSnapshot struct {
	State         string       `json:"state"`
	CapturesTotal uint64       `json:"captures_total"`
	FailuresTotal uint64       `json:"failures_total"`
	LastCapture   *LastCapture `json:"last_capture"`
}

// CaptureStatus is the in-memory summary shown on the status endpoint and
// the landing page. Nothing here survives a restart.
type CaptureStatus struct {
	draining atomic.Bool
	captures atomic.Uint64
	failures atomic.Uint64

	mu   deadlock.RWMutex
	last *LastCapture
}

func NewCaptureStatus() *CaptureStatus {
	return &CaptureStatus{}
}

func (s *CaptureStatus) RecordSuccess(last LastCapture) {
	s.captures.Add(1)
	s.mu.Lock()
	s.last = &last
	s.mu.Unlock()
}

func (s *CaptureStatus) RecordFailure() {
	s.captures.Add(1)
	s.failures.Add(1)
}

// StartDraining makes the service refuse new captures.
func (s *CaptureStatus) StartDraining() {
	s.draining.Store(true)
}

func (s *CaptureStatus) Draining() bool {
	return s.draining.Load()
}

func (s *CaptureStatus) Snapshot() CaptureStatusSnapshot {
	snap := CaptureStatusSnapshot{
		State:         ServiceRunning,
		CapturesTotal: s.captures.Load(),
		FailuresTotal: s.failures.Load(),
	}
	if s.Draining() {
		snap.State = ServiceDraining
	}
	s.mu.RLock()
	if s.last != nil {
		last := *s.last
		snap.LastCapture = &last
	}
	s.mu.RUnlock()
	return snap
}
