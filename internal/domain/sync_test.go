package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStats_Err(t *testing.T) {
	failed := ChannelStats{Err: errors.New("write videos: connection refused")}
	ok := ChannelStats{Inserted: 2}
	fetchOnly := ChannelStats{FetchErr: errors.New("exit 1")}

	tests := []struct {
		name     string
		channels []ChannelStats
		wantErr  bool
	}{
		{name: "empty pass", channels: nil},
		{name: "all succeeded", channels: []ChannelStats{ok, ok}},
		{name: "some failed", channels: []ChannelStats{failed, ok}},
		{name: "fetch failures only", channels: []ChannelStats{fetchOnly, fetchOnly}},
		{name: "single failed", channels: []ChannelStats{failed}, wantErr: true},
		{name: "all failed", channels: []ChannelStats{failed, failed, failed}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &RunStats{Channels: tt.channels}
			err := run.Err()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAllChannelsFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunStats_Totals(t *testing.T) {
	run := &RunStats{Channels: []ChannelStats{
		{Inserted: 3},
		{Inserted: 1, Err: errors.New("boom")},
	}}

	assert.Equal(t, 4, run.Inserted())
	assert.Equal(t, 1, run.FailedChannels())
}
