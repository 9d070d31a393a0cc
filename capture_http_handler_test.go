package capture

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchbaselabs/go.assert"
	"github.com/disintegration/imaging"
)

func TestCaptureHttpHandlerEndToEnd(t *testing.T) {
	f := newPipelineFixture(t, MockEngine{Text: "ABC 1234"})
	handler := NewCaptureHttpHandler(f.pipeline, f.status, 0)

	req := httptest.NewRequest(http.MethodPost, "/capture", bytes.NewReader(syntheticJPEG(t, 160, 120)))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equals(t, rec.Code, http.StatusOK)
	assert.Equals(t, rec.Header().Get("Content-Type"), "application/json")
	response := CaptureResponse{}
	assert.True(t, json.Unmarshal(rec.Body.Bytes(), &response) == nil)
	assert.Equals(t, response.Status, "success")
	assert.Equals(t, response.ExtractedText, "ABC 1234")
	assert.Equals(t, response.AnnotatedImageURL, testLatestImageURL)

	latest := httptest.NewRecorder()
	NewLatestImageHandler(f.slot).ServeHTTP(latest, httptest.NewRequest(http.MethodGet, LatestImagePath, nil))
	assert.Equals(t, latest.Code, http.StatusOK)
	assert.Equals(t, latest.Header().Get("Content-Type"), "image/jpeg")
	img, err := imaging.Decode(latest.Body)
	assert.True(t, err == nil)
	assert.Equals(t, img.Bounds().Dx(), 160)
}

func TestCaptureHttpHandlerRejects(t *testing.T) {
	f := newPipelineFixture(t, MockEngine{})
	handler := NewCaptureHttpHandler(f.pipeline, f.status, 16)

	cases := []struct {
		method string
		body   io.Reader
		code   int
	}{
		{http.MethodGet, nil, http.StatusMethodNotAllowed},
		{http.MethodPost, strings.NewReader(""), http.StatusBadRequest},
		{http.MethodPost, bytes.NewReader(make([]byte, 64)), http.StatusRequestEntityTooLarge},
		{http.MethodPost, strings.NewReader("garbage"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(c.method, "/capture", c.body))
		assert.Equals(t, rec.Code, c.code)

		response := ErrorResponse{}
		assert.True(t, json.Unmarshal(rec.Body.Bytes(), &response) == nil)
		assert.Equals(t, response.Status, "error")
		assert.True(t, response.Message != "")
	}
}

func TestCaptureHttpHandlerDraining(t *testing.T) {
	f := newPipelineFixture(t, MockEngine{})
	f.status.StartDraining()
	handler := NewCaptureHttpHandler(f.pipeline, f.status, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/capture", bytes.NewReader(syntheticJPEG(t, 32, 32))))
	assert.Equals(t, rec.Code, http.StatusServiceUnavailable)
	assert.True(t, strings.Contains(rec.Body.String(), "service is going down"))
	assert.Equals(t, len(f.uploader.uploaded), 0)
}

func TestLatestImageHandlerNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NewLatestImageHandler(NewAnnotatedSlot(t.TempDir())).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LatestImagePath, nil))
	assert.Equals(t, rec.Code, http.StatusNotFound)
}

func TestCaptureMux(t *testing.T) {
	f := newPipelineFixture(t, MockEngine{Text: "XYZ 987"})
	services := &Services{Pipeline: f.pipeline, Slot: f.slot, Status: f.status}
	srv := httptest.NewServer(NewCaptureMux(services, 1<<20, testLatestImageURL))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/capture", "image/jpeg", bytes.NewReader(syntheticJPEG(t, 160, 120)))
	assert.True(t, err == nil)
	resp.Body.Close()
	assert.Equals(t, resp.StatusCode, http.StatusOK)

	resp, err = http.Get(srv.URL + LatestImagePath)
	assert.True(t, err == nil)
	resp.Body.Close()
	assert.Equals(t, resp.StatusCode, http.StatusOK)

	resp, err = http.Get(srv.URL + "/capture-status")
	assert.True(t, err == nil)
	snap := CaptureStatusSnapshot{}
	assert.True(t, json.NewDecoder(resp.Body).Decode(&snap) == nil)
	resp.Body.Close()
	assert.Equals(t, snap.State, ServiceRunning)
	assert.Equals(t, snap.CapturesTotal, uint64(1))
	assert.Equals(t, snap.LastCapture.ExtractedText, "XYZ 987")

	resp, err = http.Get(srv.URL + "/")
	assert.True(t, err == nil)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(page), ServiceRunning))
	assert.True(t, strings.Contains(string(page), "XYZ 987"))

	resp, err = http.Get(srv.URL + "/metrics")
	assert.True(t, err == nil)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(metrics), "capture_stage_total"))

	resp, err = http.Get(srv.URL + "/nothing-here")
	assert.True(t, err == nil)
	resp.Body.Close()
	assert.Equals(t, resp.StatusCode, http.StatusNotFound)
}
