package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"channel_mirror/internal/domain"
)

var videoColumns = []string{
	"id", "channel_url", "webpage_url", "is_live", "age_limit", "uploader_id",
	"channel", "channel_follower_count", "playlist_id", "playlist_title",
	"playlist_index", "display_id", "view_count", "acodec", "fulltitle",
	"title", "description", "format", "fps", "tags", "thumbnail",
	"upload_date", "ext", "duration",
}

// postgres caps a statement at 65535 bind parameters.
const maxBindParams = 65535

// MaxBatchSize is the largest batch InsertBatch accepts.
var MaxBatchSize = maxBindParams / len(videoColumns)

type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

// InsertBatch inserts videos with a single statement and skips every id that
// is already stored. It returns the number of rows actually inserted.
func (s *VideoStore) InsertBatch(ctx context.Context, videos []domain.Video) (int64, error) {
	if len(videos) == 0 {
		return 0, nil
	}
	if len(videos) > MaxBatchSize {
		return 0, fmt.Errorf("batch of %d videos exceeds %d", len(videos), MaxBatchSize)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO videos (")
	sb.WriteString(strings.Join(videoColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(videos)*len(videoColumns))
	for i := range videos {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range videoColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*len(videoColumns) + j + 1))
		}
		sb.WriteString(")")
		args = append(args, videoArgs(&videos[i])...)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, describe(err)
	}
	return res.RowsAffected()
}

func videoArgs(v *domain.Video) []any {
	return []any{
		v.ID, v.ChannelURL, v.WebpageURL, v.IsLive, v.AgeLimit, v.UploaderID,
		v.Channel, v.ChannelFollowerCount, v.PlaylistID, v.PlaylistTitle,
		v.PlaylistIndex, v.DisplayID, v.ViewCount, v.ACodec, v.FullTitle,
		v.Title, v.Description, v.Format, v.FPS, v.Tags, v.Thumbnail,
		v.UploadDate, v.Ext, v.Duration,
	}
}

// LatestUploadByChannel returns the newest stored upload date of every given
// channel that has at least one video.
func (s *VideoStore) LatestUploadByChannel(ctx context.Context, channels []string) (map[string]time.Time, error) {
	result := make(map[string]time.Time, len(channels))
	if len(channels) == 0 {
		return result, nil
	}

	query := `
		SELECT channel_url, MAX(upload_date) AS latest
		FROM videos
		WHERE channel_url = ANY($1) AND upload_date IS NOT NULL
		GROUP BY channel_url`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(channels))
	if err != nil {
		return nil, describe(err)
	}
	defer rows.Close()

	for rows.Next() {
		var channel string
		var latest time.Time
		if err := rows.Scan(&channel, &latest); err != nil {
			return nil, err
		}
		result[channel] = latest
	}

	return result, rows.Err()
}

// Count returns the number of stored videos.
func (s *VideoStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM videos")
	return n, err
}

// Each streams every stored video ordered by upload date and id.
func (s *VideoStore) Each(ctx context.Context, fn func(domain.Video) error) error {
	query := `
		SELECT id,
			COALESCE(channel_url, '') AS channel_url,
			COALESCE(webpage_url, '') AS webpage_url,
			is_live, age_limit, uploader_id,
			COALESCE(channel, '') AS channel,
			channel_follower_count, playlist_id, playlist_title, playlist_index,
			display_id, view_count, acodec, fulltitle,
			COALESCE(title, '') AS title,
			COALESCE(description, '') AS description,
			format, fps, tags, thumbnail,
			upload_date,
			ext, duration
		FROM videos
		ORDER BY upload_date, id`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return describe(err)
	}
	defer rows.Close()

	for rows.Next() {
		var row videoRow
		if err := rows.StructScan(&row); err != nil {
			return err
		}
		if err := fn(row.video()); err != nil {
			return err
		}
	}

	return rows.Err()
}

// videoRow shadows upload_date, which legacy rows may leave NULL.
type videoRow struct {
	domain.Video
	UploadDate sql.NullTime `db:"upload_date"`
}

// video leaves UploadDate zero when the column is NULL.
func (r videoRow) video() domain.Video {
	v := r.Video
	if r.UploadDate.Valid {
		v.UploadDate = r.UploadDate.Time
	}
	return v
}

// describe adds the postgres error class to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres %s (%s): %w", pqErr.Code, pqErr.Code.Name(), err)
	}
	return err
}
