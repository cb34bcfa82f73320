package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"channel_mirror/internal/domain"
)

type ChannelSource interface {
	Channels() ([]string, error)
}

type WatermarkStore interface {
	LatestUploadByChannel(ctx context.Context, channels []string) (map[string]time.Time, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, channelURL string, after time.Time, dir string) error
}

type Parser interface {
	ParseDir(dir, channelURL string) (*domain.Batch, error)
}

type Writer interface {
	Write(ctx context.Context, videos []domain.Video) (int, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, channelURL string) (*domain.ChannelState, error)
	Update(ctx context.Context, state *domain.ChannelState) error
}

type Publisher interface {
	Publish(ctx context.Context, runID uuid.UUID, stats domain.ChannelStats) error
	Close() error
}

type MetricsRecorder interface {
	ObserveChannel(stats domain.ChannelStats)
}
