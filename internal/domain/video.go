package domain

import "time"

// EpochFloor is the watermark of a channel that has nothing stored yet.
var EpochFloor = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Video is one item of channel metadata as it is stored.
// Pointer fields are optional and stay nil when the source document
// does not carry them.
type Video struct {
	ID                   string    `db:"id"`
	ChannelURL           string    `db:"channel_url"`
	WebpageURL           string    `db:"webpage_url"`
	IsLive               *bool     `db:"is_live"`
	AgeLimit             *int16    `db:"age_limit"`
	UploaderID           *string   `db:"uploader_id"`
	Channel              string    `db:"channel"`
	ChannelFollowerCount *int64    `db:"channel_follower_count"`
	PlaylistID           *string   `db:"playlist_id"`
	PlaylistTitle        *string   `db:"playlist_title"`
	PlaylistIndex        *int32    `db:"playlist_index"`
	DisplayID            *string   `db:"display_id"`
	ViewCount            *int64    `db:"view_count"`
	ACodec               *string   `db:"acodec"`
	FullTitle            *string   `db:"fulltitle"`
	Title                string    `db:"title"`
	Description          string    `db:"description"`
	Format               *string   `db:"format"`
	FPS                  *float64  `db:"fps"`
	Tags                 *string   `db:"tags"` // space separated
	Thumbnail            *string   `db:"thumbnail"`
	UploadDate           time.Time `db:"upload_date"`
	Ext                  *string   `db:"ext"`
	Duration             *int32    `db:"duration"` // seconds
}

// ChannelState is the bookkeeping row kept for every synced channel.
type ChannelState struct {
	ID            int64      `db:"id"`
	ChannelURL    string     `db:"channel_url"`
	LastSyncedAt  time.Time  `db:"last_synced_at"`
	LastWatermark *time.Time `db:"last_watermark"`
	TotalInserted int64      `db:"total_inserted"`
	LastError     *string    `db:"last_error"`
}
