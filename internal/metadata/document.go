// Package metadata turns the info documents written by the fetcher into
// validated domain videos.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"channel_mirror/internal/domain"
)

// UploadDateLayout is the compact date encoding used by the fetcher.
const UploadDateLayout = "20060102"

var (
	ErrMalformed    = errors.New("malformed document")
	ErrMissingField = errors.New("missing required field")
	ErrInvalidDate  = errors.New("invalid upload date")
	ErrInvalidField = errors.New("invalid field")
)

// document is a decoded info file. Keys are kept raw so that every field can
// be checked on its own.
type document map[string]json.RawMessage

// Parse validates a single info document. It fails only when a required
// field is missing or malformed; optional fields of the wrong shape are
// dropped.
func Parse(data []byte) (domain.Video, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Video{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return domain.Video{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	var (
		v   domain.Video
		err error
	)

	if v.ID, err = doc.required("id"); err != nil {
		return domain.Video{}, err
	}
	if v.ID == "" {
		return domain.Video{}, fmt.Errorf("%w: id is empty", ErrMissingField)
	}
	if v.WebpageURL, err = doc.required("webpage_url"); err != nil {
		return domain.Video{}, err
	}
	if v.Title, err = doc.required("title"); err != nil {
		return domain.Video{}, err
	}
	if v.Description, err = doc.required("description"); err != nil {
		return domain.Video{}, err
	}
	if v.Channel, err = doc.required("channel"); err != nil {
		return domain.Video{}, err
	}

	rawDate, err := doc.required("upload_date")
	if err != nil {
		return domain.Video{}, err
	}
	if v.UploadDate, err = ParseUploadDate(rawDate); err != nil {
		return domain.Video{}, err
	}

	v.IsLive = optional[bool](doc, "is_live")
	v.AgeLimit = optionalInt[int16](doc, "age_limit", 16)
	v.UploaderID = optional[string](doc, "uploader_id")
	v.ChannelFollowerCount = optionalInt[int64](doc, "channel_follower_count", 64)
	v.PlaylistID = optional[string](doc, "playlist_id")
	v.PlaylistTitle = optional[string](doc, "playlist_title")
	v.PlaylistIndex = optionalInt[int32](doc, "playlist_index", 32)
	v.DisplayID = optional[string](doc, "display_id")
	v.ViewCount = optionalInt[int64](doc, "view_count", 64)
	v.ACodec = optional[string](doc, "acodec")
	v.FullTitle = optional[string](doc, "fulltitle")
	v.Format = optional[string](doc, "format")
	v.FPS = optional[float64](doc, "fps")
	v.Thumbnail = optional[string](doc, "thumbnail")
	v.Ext = optional[string](doc, "ext")
	v.Duration = optionalInt[int32](doc, "duration", 32)

	if tags := optional[[]string](doc, "tags"); tags != nil {
		joined := FlattenTags(*tags)
		v.Tags = &joined
	}

	return v, nil
}

// ParseUploadDate parses a YYYYMMDD date. Impossible calendar dates such as
// 20230230 are rejected.
func ParseUploadDate(s string) (time.Time, error) {
	if len(s) != len(UploadDateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(UploadDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatUploadDate is the inverse of ParseUploadDate.
func FormatUploadDate(t time.Time) string {
	return t.Format(UploadDateLayout)
}

// FlattenTags joins tags with a single space. Consumers split on it, so the
// separator must not change.
func FlattenTags(tags []string) string {
	return strings.Join(tags, " ")
}

func (d document) required(key string) (string, error) {
	raw, ok := d[key]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrInvalidField, key)
	}
	return s, nil
}

func optional[T any](d document, key string) *T {
	raw, ok := d[key]
	if !ok || isNull(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// optionalInt accepts integral and fractional JSON numbers and truncates the
// latter. Integers are parsed exactly; values outside a bitSize-bit signed
// range are treated as absent.
func optionalInt[T int16 | int32 | int64](d document, key string, bitSize int) *T {
	raw, ok := d[key]
	if !ok || isNull(raw) || raw[0] == '"' {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}

	i, err := strconv.ParseInt(n.String(), 10, bitSize)
	if err == nil {
		v := T(i)
		return &v
	}
	if errors.Is(err, strconv.ErrRange) {
		return nil
	}

	// 1e3, 61.9
	f, err := strconv.ParseFloat(n.String(), 64)
	limit := math.Ldexp(1, bitSize-1)
	if err != nil || math.IsNaN(f) || f < -limit || f >= limit {
		return nil
	}
	v := T(math.Trunc(f))
	return &v
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
