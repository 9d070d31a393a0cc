package capture

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

func saveBytesToFileName(bytes []byte, fileName string) error {
	return os.WriteFile(fileName, bytes, 0600)
}

// createTempFileName generating a file name within of a temp directory. If function argument is empty string
// file name will be generated in ksuid format.
func createTempFileName(fileName string) string {
	tempDir := os.TempDir()

	if fileName == "" {
		ksuidRaw := ksuid.New()
		fileName = ksuidRaw.String()
	}

	return filepath.Join(tempDir, fileName)
}

func removeFile(name string, component string) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("component", component).Msg(name + " could not be removed")
	}
}

// detectFileType looks at the magic bytes of an uploaded image
func detectFileType(buffer []byte) string {
	switch {
	case len(buffer) > 2 &&
		buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF:
		return "JPEG"
	case len(buffer) > 3 &&
		buffer[0] == 0x89 && buffer[1] == 0x50 &&
		buffer[2] == 0x4E && buffer[3] == 0x47:
		return "PNG"
	case len(buffer) > 3 &&
		((buffer[0] == 0x49 && buffer[1] == 0x49 && buffer[2] == 0x2A && buffer[3] == 0x0) ||
			(buffer[0] == 0x4D && buffer[1] == 0x4D && buffer[2] == 0x0 && buffer[3] == 0x2A)):
		return "TIFF"
	}
	return "UNKNOWN"
}

func extensionForFileType(fileType string) string {
	switch fileType {
	case "PNG":
		return ".png"
	case "TIFF":
		return ".tif"
	}
	// the camera sends jpeg, so anything unrecognised keeps the jpeg extension
	return ".jpg"
}

// checkAbsoluteURL Checks if provided string is a valid absolute URL
func checkAbsoluteURL(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		err = fmt.Errorf("provided %s URI must be an absolute URL", u.String())
	}
	return strings.TrimRight(u.String(), "/"), err
}

// timeTrack used to measure time of selected operations
func timeTrack(start time.Time, operation string, message string, requestID string) {
	elapsed := time.Since(start)
	if requestID == "" {
		log.Debug().Str("component", "CAPTURE_PIPELINE").Dur(operation, elapsed).Msg(message)
		return
	}
	log.Debug().Str("component", "CAPTURE_PIPELINE").Dur(operation, elapsed).
		Str("RequestID", requestID).Msg(message)
}

// StripPasswordFromUrl strips passwords from URL
func StripPasswordFromUrl(urlToLog *url.URL) string {

	pass, passSet := urlToLog.User.Password()

	if passSet {
		return strings.Replace(urlToLog.String(), pass+"@", "***@", 1)
	}
	return urlToLog.String()
}

func stripPasswordFromRawUrl(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparsable url>"
	}
	return StripPasswordFromUrl(u)
}
