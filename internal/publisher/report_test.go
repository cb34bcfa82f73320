package publisher

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"channel_mirror/internal/domain"
)

func TestNewChannelReport(t *testing.T) {
	runID := uuid.MustParse("6f1c1d3e-8a4b-4b8e-9a57-2a2f5b7c9d10")
	stats := domain.ChannelStats{
		ChannelURL: "https://example.com/channel",
		Watermark:  time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		Documents:  3,
		Valid:      2,
		Failed:     1,
		Inserted:   2,
		FetchErr:   errors.New("exit 1"),
	}

	report := NewChannelReport(runID, stats)

	assert.Equal(t, "6f1c1d3e-8a4b-4b8e-9a57-2a2f5b7c9d10", report.RunID)
	assert.Equal(t, "2021-01-01", report.Watermark)
	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 2, report.Valid)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, "exit 1", report.FetchError)
	assert.Empty(t, report.Error)
	assert.WithinDuration(t, time.Now(), report.Timestamp, time.Minute)
}
