package capture

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func readLedger(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	assert.True(t, err == nil)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	assert.True(t, err == nil)
	return records
}

func TestCsvLogAppenderWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "capture_log.csv")
	appender, err := NewCsvLogAppender(path)
	assert.True(t, err == nil)

	rows := []LogRow{
		{Timestamp: "2024-05-01 10:00:00", ExtractedText: "ABC 1234", ImageLink: "https://x/cam/a.jpg"},
		{Timestamp: "2024-05-01 10:00:01", ExtractedText: `with, comma and "quote"`, ImageLink: "https://x/cam/b.jpg"},
	}
	for _, row := range rows {
		assert.True(t, appender.AppendRow(context.Background(), row) == nil)
	}

	records := readLedger(t, path)
	assert.Equals(t, len(records), 3)
	assert.Equals(t, records[0][0], "timestamp")
	assert.Equals(t, records[0][2], "image_link")
	assert.Equals(t, records[2][1], `with, comma and "quote"`)

	// a second appender on the same file keeps appending
	again, err := NewCsvLogAppender(path)
	assert.True(t, err == nil)
	assert.True(t, again.AppendRow(context.Background(), rows[0]) == nil)
	assert.Equals(t, len(readLedger(t, path)), 4)
}

func TestCsvLogAppenderConcurrentRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture_log.csv")
	appender, err := NewCsvLogAppender(path)
	assert.True(t, err == nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row := LogRow{Timestamp: fmt.Sprintf("2024-05-01 10:00:%02d", i), ExtractedText: "ABC 1234"}
			if err := appender.AppendRow(context.Background(), row); err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	records := readLedger(t, path)
	assert.Equals(t, len(records), 21)
	for _, r := range records {
		assert.Equals(t, len(r), 3)
	}
}

func TestCsvLogAppenderCancelledContext(t *testing.T) {
	appender, err := NewCsvLogAppender(filepath.Join(t.TempDir(), "capture_log.csv"))
	assert.True(t, err == nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, appender.AppendRow(ctx, LogRow{}) != nil)
}
