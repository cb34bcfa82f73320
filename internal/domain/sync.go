package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrAllChannelsFailed is returned for a pass in which no channel could be
// written, which points at the store rather than at single channels.
var ErrAllChannelsFailed = errors.New("every channel failed")

// ParseFailure describes a document that could not be turned into a Video.
type ParseFailure struct {
	File   string
	Reason string
}

// Batch is the outcome of parsing one fetch directory.
type Batch struct {
	Total    int
	Valid    []Video
	Failures []ParseFailure
}

// ChannelStats holds statistics about one channel pass.
type ChannelStats struct {
	ChannelURL string
	Watermark  time.Time
	Documents  int
	Valid      int
	Failed     int
	Inserted   int
	FetchErr   error
	Err        error
	Duration   time.Duration
}

// Skipped returns how many valid videos were already stored.
func (c ChannelStats) Skipped() int {
	if c.Err != nil {
		return 0
	}
	return c.Valid - c.Inserted
}

// RunStats holds statistics about a full pass over the channel list.
type RunStats struct {
	RunID    uuid.UUID
	Channels []ChannelStats
	Duration time.Duration
}

// Inserted returns the number of new videos over all channels.
func (r *RunStats) Inserted() int {
	total := 0
	for _, c := range r.Channels {
		total += c.Inserted
	}
	return total
}

// FailedChannels returns how many channels could not be written.
func (r *RunStats) FailedChannels() int {
	failed := 0
	for _, c := range r.Channels {
		if c.Err != nil {
			failed++
		}
	}
	return failed
}

// Err returns ErrAllChannelsFailed when the pass processed channels and
// none of them succeeded.
func (r *RunStats) Err() error {
	if n := len(r.Channels); n > 0 && r.FailedChannels() == n {
		return fmt.Errorf("%w: %d of %d", ErrAllChannelsFailed, n, n)
	}
	return nil
}
