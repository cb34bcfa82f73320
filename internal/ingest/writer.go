// Package ingest commits parsed videos to the store in bounded chunks.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"channel_mirror/internal/domain"
)

// DefaultChunkSize bounds the rows written by one transaction.
const DefaultChunkSize = 1000

type Writer struct {
	videos    VideoStore
	txManager TransactionManager
	chunkSize int
	logger    *slog.Logger
}

func NewWriter(videos VideoStore, txManager TransactionManager, chunkSize int, logger *slog.Logger) *Writer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Writer{
		videos:    videos,
		txManager: txManager,
		chunkSize: chunkSize,
		logger:    logger.With("component", "writer"),
	}
}

// Write stores videos in consecutive chunks, one transaction each. Videos
// whose id is already stored are skipped. The first failing chunk aborts the
// write; chunks committed before it stay committed. The returned count is the
// number of newly inserted rows.
func (w *Writer) Write(ctx context.Context, videos []domain.Video) (int, error) {
	inserted := 0

	for i, chunk := range chunks(videos, w.chunkSize) {
		var n int64
		err := w.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			var err error
			n, err = w.videos.InsertBatch(txCtx, chunk)
			return err
		})
		if err != nil {
			return inserted, fmt.Errorf("write chunk %d (%d videos): %w", i, len(chunk), err)
		}

		inserted += int(n)
		w.logger.Debug("chunk written",
			"chunk", i,
			"size", len(chunk),
			"inserted", n,
		)
	}

	return inserted, nil
}

func chunks(videos []domain.Video, size int) [][]domain.Video {
	var out [][]domain.Video
	for start := 0; start < len(videos); start += size {
		end := min(start+size, len(videos))
		out = append(out, videos[start:end])
	}
	return out
}
