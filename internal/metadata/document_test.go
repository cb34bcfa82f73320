package metadata

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel_mirror/testdata/utils"
)

const fullDocument = `{
	"id": "dQw4w9WgXcQ",
	"webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	"is_live": false,
	"age_limit": 0,
	"uploader_id": "@rick",
	"channel": "Rick Astley",
	"channel_follower_count": 4100000,
	"playlist_id": "UUuAXFkgsw1L7xaCfnd5JJOw",
	"playlist_title": "Uploads from Rick Astley",
	"playlist_index": 3,
	"display_id": "dQw4w9WgXcQ",
	"view_count": 1500000000,
	"acodec": "opus",
	"fulltitle": "Never Gonna Give You Up",
	"title": "Never Gonna Give You Up",
	"description": "The official video",
	"format": "248 - 1920x1080 (1080p)+251 - audio only (medium)",
	"fps": 25,
	"tags": ["rick", "astley", "80s"],
	"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
	"upload_date": "20091025",
	"ext": "webm",
	"duration": 212
}`

func TestParse_FullDocument(t *testing.T) {
	v, err := Parse([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", v.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", v.WebpageURL)
	assert.Equal(t, "Rick Astley", v.Channel)
	assert.Equal(t, "Never Gonna Give You Up", v.Title)
	assert.Equal(t, "The official video", v.Description)
	assert.Equal(t, time.Date(2009, time.October, 25, 0, 0, 0, 0, time.UTC), v.UploadDate)

	require.NotNil(t, v.IsLive)
	assert.False(t, *v.IsLive)
	require.NotNil(t, v.AgeLimit)
	assert.Equal(t, int16(0), *v.AgeLimit)
	require.NotNil(t, v.ChannelFollowerCount)
	assert.Equal(t, int64(4100000), *v.ChannelFollowerCount)
	require.NotNil(t, v.PlaylistIndex)
	assert.Equal(t, int32(3), *v.PlaylistIndex)
	require.NotNil(t, v.ViewCount)
	assert.Equal(t, int64(1500000000), *v.ViewCount)
	require.NotNil(t, v.FPS)
	assert.Equal(t, 25.0, *v.FPS)
	require.NotNil(t, v.Duration)
	assert.Equal(t, int32(212), *v.Duration)
	require.NotNil(t, v.Tags)
	assert.Equal(t, "rick astley 80s", *v.Tags)
	require.NotNil(t, v.Ext)
	assert.Equal(t, "webm", *v.Ext)
	assert.Empty(t, v.ChannelURL)
}

func TestParse_TagsFlattenedWithSingleSpace(t *testing.T) {
	v, err := Parse([]byte(`{"id":"x","webpage_url":"u","title":"t","description":"","channel":"c","upload_date":"20230101","tags":["a","b","c"]}`))
	require.NoError(t, err)
	require.NotNil(t, v.Tags)
	assert.Equal(t, "a b c", *v.Tags)
}

func TestParse_OptionalFieldsAbsent(t *testing.T) {
	v, err := Parse([]byte(`{"id":"x","webpage_url":"u","title":"t","description":"","channel":"c","upload_date":"20230101"}`))
	require.NoError(t, err)

	assert.Nil(t, v.IsLive)
	assert.Nil(t, v.AgeLimit)
	assert.Nil(t, v.UploaderID)
	assert.Nil(t, v.ViewCount)
	assert.Nil(t, v.Tags)
	assert.Nil(t, v.Duration)
	assert.Nil(t, v.FPS)
	assert.Equal(t, "", v.Description)
}

func TestParse_MalformedOptionalFieldsAreDropped(t *testing.T) {
	doc := `{
		"id": "x", "webpage_url": "u", "title": "t", "description": "d", "channel": "c",
		"upload_date": "20230101",
		"view_count": "many",
		"tags": "not-a-list",
		"is_live": null,
		"age_limit": 99999,
		"duration": 61.9
	}`

	v, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Nil(t, v.ViewCount)
	assert.Nil(t, v.Tags)
	assert.Nil(t, v.IsLive)
	assert.Nil(t, v.AgeLimit)
	require.NotNil(t, v.Duration)
	assert.Equal(t, int32(61), *v.Duration)
}

func TestParse_IntegerFieldsKeepFullPrecision(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *int64
	}{
		{name: "max int64", value: "9223372036854775807", want: utils.Ptr(int64(math.MaxInt64))},
		{name: "min int64", value: "-9223372036854775808", want: utils.Ptr(int64(math.MinInt64))},
		{name: "above float precision", value: "9007199254740993", want: utils.Ptr(int64(9007199254740993))},
		{name: "one past max", value: "9223372036854775808", want: nil},
		{name: "fractional past max", value: "9223372036854775808.5", want: nil},
		{name: "exponent", value: "1e3", want: utils.Ptr(int64(1000))},
		{name: "fraction truncated", value: "41.99", want: utils.Ptr(int64(41))},
		{name: "numeric string", value: `"42"`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"id": "x", "webpage_url": "u", "title": "t", "description": "d", "channel": "c",
				"upload_date": "20230101", "view_count": ` + tt.value + `}`

			v, err := Parse([]byte(doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.ViewCount)
		})
	}
}

func TestParse_SmallIntegerRange(t *testing.T) {
	doc := `{"id": "x", "webpage_url": "u", "title": "t", "description": "d", "channel": "c",
		"upload_date": "20230101", "age_limit": 32767, "playlist_index": 2147483648, "duration": -2147483648}`

	v, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.NotNil(t, v.AgeLimit)
	assert.Equal(t, int16(math.MaxInt16), *v.AgeLimit)
	assert.Nil(t, v.PlaylistIndex)
	require.NotNil(t, v.Duration)
	assert.Equal(t, int32(math.MinInt32), *v.Duration)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "not json",
			doc:  `{"id": `,
			want: ErrMalformed,
		},
		{
			name: "json array",
			doc:  `[1, 2]`,
			want: ErrMalformed,
		},
		{
			name: "json null",
			doc:  `null`,
			want: ErrMalformed,
		},
		{
			name: "missing id",
			doc:  `{"webpage_url":"u","title":"t","description":"d","channel":"c","upload_date":"20230101"}`,
			want: ErrMissingField,
		},
		{
			name: "empty id",
			doc:  `{"id":"","webpage_url":"u","title":"t","description":"d","channel":"c","upload_date":"20230101"}`,
			want: ErrMissingField,
		},
		{
			name: "null title",
			doc:  `{"id":"x","webpage_url":"u","title":null,"description":"d","channel":"c","upload_date":"20230101"}`,
			want: ErrMissingField,
		},
		{
			name: "missing description",
			doc:  `{"id":"x","webpage_url":"u","title":"t","channel":"c","upload_date":"20230101"}`,
			want: ErrMissingField,
		},
		{
			name: "numeric channel",
			doc:  `{"id":"x","webpage_url":"u","title":"t","description":"d","channel":7,"upload_date":"20230101"}`,
			want: ErrInvalidField,
		},
		{
			name: "missing upload date",
			doc:  `{"id":"x","webpage_url":"u","title":"t","description":"d","channel":"c"}`,
			want: ErrMissingField,
		},
		{
			name: "impossible calendar date",
			doc:  `{"id":"x","webpage_url":"u","title":"t","description":"d","channel":"c","upload_date":"20230230"}`,
			want: ErrInvalidDate,
		},
		{
			name: "dashed date",
			doc:  `{"id":"x","webpage_url":"u","title":"t","description":"d","channel":"c","upload_date":"2023-01-01"}`,
			want: ErrInvalidDate,
		},
		{
			name: "numeric date",
			doc:  `{"id":"x","webpage_url":"u","title":"t","description":"d","channel":"c","upload_date":20230101}`,
			want: ErrInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseUploadDate(t *testing.T) {
	d, err := ParseUploadDate("20220615")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, time.June, 15, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "20220615", FormatUploadDate(d))

	_, err = ParseUploadDate("20230230")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseUploadDate("2023011")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
