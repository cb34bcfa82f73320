package ingest

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"channel_mirror/internal/domain"
)

type VideoStore interface {
	InsertBatch(ctx context.Context, videos []domain.Video) (int64, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
