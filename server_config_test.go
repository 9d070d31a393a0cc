package capture

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/couchbaselabs/go.assert"
)

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestServerConfigDefaults(t *testing.T) {
	cfg, err := ServerConfigFromEnv()
	assert.True(t, err == nil)
	assert.Equals(t, cfg.HttpPort, uint(8080))
	assert.Equals(t, cfg.MaxUploadSize, int64(10<<20))
	assert.Equals(t, cfg.DeviceTimeout, 3*time.Second)
	assert.Equals(t, cfg.EngineType, EngineTesseract)
	assert.Equals(t, cfg.Engine.PageSegMode, "6")
	assert.Equals(t, cfg.Engine.Lang, "eng")
	assert.Equals(t, cfg.LogSink, LogSinkCSV)
	assert.Equals(t, cfg.LatestImageURL(), "http://localhost:8080/uploads/latest_vehicle_annotated.jpg")
	assert.True(t, cfg.Validate() == nil)
}

func TestServerConfigFromEnvironment(t *testing.T) {
	t.Setenv("CAPTURE_HTTP_PORT", "9090")
	t.Setenv("CAPTURE_DEVICE_URL", "http://192.168.4.2")
	t.Setenv("CAPTURE_DEVICE_TIMEOUT", "1s")
	t.Setenv("CAPTURE_ENGINE", "mock")
	t.Setenv("CAPTURE_S3_BUCKET", "plates")
	t.Setenv("CAPTURE_S3_PUBLIC_READ", "true")
	t.Setenv("CAPTURE_LOG_SINK", "amqp")
	t.Setenv("CAPTURE_AMQP_URI", "amqp://user:pw@rabbit:5672/")
	t.Setenv("CAPTURE_OCR_WHITELIST", "ABC123")

	cfg, err := ServerConfigFromEnv()
	assert.True(t, err == nil)
	assert.Equals(t, cfg.HttpPort, uint(9090))
	assert.Equals(t, cfg.DeviceURL, "http://192.168.4.2")
	assert.Equals(t, cfg.DeviceTimeout, time.Second)
	assert.Equals(t, cfg.EngineType, EngineMock)
	assert.Equals(t, cfg.S3.Bucket, "plates")
	assert.True(t, cfg.S3.PublicRead)
	assert.Equals(t, cfg.LogSink, LogSinkAMQP)
	assert.Equals(t, cfg.Rabbit.AmqpURI, "amqp://user:pw@rabbit:5672/")
	assert.Equals(t, cfg.Engine.ConfigVars["tessedit_char_whitelist"], "ABC123")
}

func TestServerConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CAPTURE_HTTP_PORT", "9090")
	t.Setenv("CAPTURE_UPLOAD_DIR", "/var/capture")

	cfg, err := parseServerFlags(newTestFlagSet(), []string{"-http_port", "7070", "-engine", "MOCK", "-debug"})
	assert.True(t, err == nil)
	assert.Equals(t, cfg.HttpPort, uint(7070))
	assert.Equals(t, cfg.UploadDir, "/var/capture")
	assert.Equals(t, cfg.EngineType, EngineMock)
	assert.True(t, cfg.Debug)
}

func TestServerConfigValidate(t *testing.T) {
	_, err := parseServerFlags(newTestFlagSet(), []string{"-log_sink", "kafka"})
	assert.True(t, err != nil)

	_, err = parseServerFlags(newTestFlagSet(), []string{"-device_url", "esp32.local"})
	assert.True(t, err != nil)

	_, err = parseServerFlags(newTestFlagSet(), []string{"-max_upload_size", "0"})
	assert.True(t, err != nil)
}

func TestServerConfigRejectsUnknownEngine(t *testing.T) {
	t.Setenv("CAPTURE_ENGINE", "tesseract-ocr")

	cfg, err := ServerConfigFromEnv()
	assert.True(t, err != nil)
	assert.True(t, cfg.EngineType != EngineMock)

	_, err = parseServerFlags(newTestFlagSet(), []string{})
	assert.True(t, err != nil)

	_, err = parseServerFlags(newTestFlagSet(), []string{"-engine", "mokc"})
	assert.True(t, err != nil)

	// a valid flag wins over the broken environment value
	cfg, err = parseServerFlags(newTestFlagSet(), []string{"-engine", "tesseract"})
	assert.True(t, err == nil)
	assert.Equals(t, cfg.EngineType, EngineTesseract)
}

func TestWorkerConfig(t *testing.T) {
	t.Setenv("CAPTURE_LEDGER_PATH", "/data/ledger.csv")
	cfg, err := parseWorkerFlags(newTestFlagSet(), []string{"-amqp_uri", "amqp://guest:guest@mq:5672/"})
	assert.True(t, err == nil)
	assert.Equals(t, cfg.LedgerPath, "/data/ledger.csv")
	assert.Equals(t, cfg.Rabbit.AmqpURI, "amqp://guest:guest@mq:5672/")
	assert.Equals(t, cfg.Rabbit.QueueName, "capture-log")
	assert.True(t, cfg.Rabbit.Reliable)
}
