package capture

import (
	"fmt"
	"html"
	"net/http"
	"strings"
)

// GenerateLandingPage renders a simple landing page from a status snapshot
func GenerateLandingPage(snap CaptureStatusSnapshot, latestImageURL string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>open-capture</title>` +
		`<style> html, body{font-family: "Fixedsys,Courier,monospace";}body {max-width: 960px; min-width: 320px;` +
		`margin: 0 auto;}section {margin: 3em 1.5em 0 1.5em;}li {margin-top: 0.8em;}` +
		`.nes-container {position: relative; padding: 1.5rem 2rem; border-color: #000; border-style: solid;` +
		`border-width: 4px;} .nes-container.with-title > .title {display: table;padding: 0 .5rem;margin: -2.2rem 0 1rem;` +
		`font-size: 1rem;background-color: #fff;}` +
		`.nes-btn {border-style: solid;border-width: 4px;text-decoration: none;display: inline-block;padding: 6px 8px;color: #fff;}` +
		`.is-success {background-color: #92cc41;} .is-warning {background-color: #f7d51d; color: #212529;}` +
		`</style></head><body>` +
		`<section class="nes-container with-title"><h2 class="title">Open-capture  ></h2><div>`)

	btnClass := "is-success"
	if snap.State == ServiceDraining {
		btnClass = "is-warning"
	}
	fmt.Fprintf(&b, `<a class="nes-btn %s" href="/capture-status">%s</a>`, btnClass, html.EscapeString(snap.State))
	fmt.Fprintf(&b, `<ul><li>captures: %d</li><li>failures: %d</li>`, snap.CapturesTotal, snap.FailuresTotal)
	if last := snap.LastCapture; last != nil {
		fmt.Fprintf(&b, `<li>last capture: %s</li><li>text: <code>%s</code></li><li>stored at: <a href="%s">%s</a></li>`,
			html.EscapeString(last.Timestamp),
			html.EscapeString(last.ExtractedText),
			html.EscapeString(last.ImageLink),
			html.EscapeString(last.ImageLink),
		)
	} else {
		b.WriteString(`<li>no capture yet</li>`)
	}
	fmt.Fprintf(&b, `</ul><p><a href="%s">latest annotated image</a></p></div></section></body></html>`,
		html.EscapeString(latestImageURL))
	return b.String()
}

// LandingPageHandler serves the landing page on / and 404 everywhere else.
type LandingPageHandler struct {
	status         *CaptureStatus
	latestImageURL string
}

func NewLandingPageHandler(status *CaptureStatus, latestImageURL string) *LandingPageHandler {
	return &LandingPageHandler{status: status, latestImageURL: latestImageURL}
}

func (h *LandingPageHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(GenerateLandingPage(h.status.Snapshot(), h.latestImageURL)))
}
