package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"channel_mirror/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, channelURL string) (*domain.ChannelState, error) {
	var state domain.ChannelState
	query := `
		SELECT id, channel_url, last_synced_at, last_watermark, total_inserted, last_error
		FROM channel_sync_state
		WHERE channel_url = $1`

	err := s.db.GetContext(ctx, &state, query, channelURL)
	if errors.Is(err, sql.ErrNoRows) {
		// Channels that were never synced start from an empty state
		return &domain.ChannelState{ChannelURL: channelURL}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.ChannelState) error {
	query := `
		INSERT INTO channel_sync_state (channel_url, last_synced_at, last_watermark, total_inserted, last_error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (channel_url) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_watermark = EXCLUDED.last_watermark,
			total_inserted = EXCLUDED.total_inserted,
			last_error = EXCLUDED.last_error`

	_, err := s.db.ExecContext(ctx, query,
		state.ChannelURL,
		state.LastSyncedAt,
		state.LastWatermark,
		state.TotalInserted,
		state.LastError,
	)
	return err
}
