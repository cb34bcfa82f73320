// Package export dumps stored videos as delimited text.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"channel_mirror/internal/domain"
)

// Delimiter separates cells. Descriptions routinely contain commas.
const Delimiter = ';'

var Header = []string{
	"id", "channel_url", "webpage_url", "is_live", "age_limit", "uploader_id",
	"channel", "channel_follower_count", "playlist_id", "playlist_title",
	"playlist_index", "display_id", "view_count", "acodec", "fulltitle",
	"title", "description", "format", "fps", "tags", "thumbnail",
	"upload_date", "ext", "duration",
}

// VideoSource streams stored videos in export order.
type VideoSource interface {
	Each(ctx context.Context, fn func(domain.Video) error) error
}

type Exporter struct {
	videos VideoSource
}

func NewExporter(videos VideoSource) *Exporter {
	return &Exporter{videos: videos}
}

// WriteCSV writes the header and one row per stored video to w. It returns
// the number of data rows written.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	err := e.videos.Each(ctx, func(v domain.Video) error {
		if err := cw.Write(Row(v)); err != nil {
			return fmt.Errorf("write row %s: %w", v.ID, err)
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush: %w", err)
	}
	return rows, nil
}

// Row renders v in Header order. Absent values become empty cells.
func Row(v domain.Video) []string {
	return []string{
		v.ID,
		v.ChannelURL,
		v.WebpageURL,
		cell(v.IsLive, strconv.FormatBool),
		cell(v.AgeLimit, func(n int16) string { return strconv.FormatInt(int64(n), 10) }),
		cell(v.UploaderID, str),
		v.Channel,
		cell(v.ChannelFollowerCount, func(n int64) string { return strconv.FormatInt(n, 10) }),
		cell(v.PlaylistID, str),
		cell(v.PlaylistTitle, str),
		cell(v.PlaylistIndex, func(n int32) string { return strconv.FormatInt(int64(n), 10) }),
		cell(v.DisplayID, str),
		cell(v.ViewCount, func(n int64) string { return strconv.FormatInt(n, 10) }),
		cell(v.ACodec, str),
		cell(v.FullTitle, str),
		v.Title,
		v.Description,
		cell(v.Format, str),
		cell(v.FPS, func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }),
		cell(v.Tags, str),
		cell(v.Thumbnail, str),
		date(v.UploadDate),
		cell(v.Ext, str),
		cell(v.Duration, func(n int32) string { return strconv.FormatInt(int64(n), 10) }),
	}
}

func cell[T any](v *T, format func(T) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}

func str(s string) string { return s }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
