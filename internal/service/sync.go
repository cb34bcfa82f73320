package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"channel_mirror/internal/domain"
)

// SyncService mirrors every listed channel, one at a time. Channels are never
// fetched concurrently to stay clear of remote rate limits.
type SyncService struct {
	channels   ChannelSource
	watermarks WatermarkStore
	fetcher    Fetcher
	parser     Parser
	writer     Writer
	syncState  SyncStateStore
	publisher  Publisher
	metrics    MetricsRecorder
	logger     *slog.Logger
	workDir    string
}

// NewSyncService wires the pipeline. publisher and metrics may be nil.
// Each channel gets its own fresh directory under workDir.
func NewSyncService(
	channels ChannelSource,
	watermarks WatermarkStore,
	fetcher Fetcher,
	parser Parser,
	writer Writer,
	syncState SyncStateStore,
	publisher Publisher,
	metrics MetricsRecorder,
	logger *slog.Logger,
	workDir string,
) *SyncService {
	return &SyncService{
		channels:   channels,
		watermarks: watermarks,
		fetcher:    fetcher,
		parser:     parser,
		writer:     writer,
		syncState:  syncState,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger.With("component", "sync"),
		workDir:    workDir,
	}
}

// Sync runs one pass over the channel list. Failing to read the list or the
// watermarks aborts the pass; a failing channel is recorded in its stats and
// the pass moves on to the next one.
func (s *SyncService) Sync(ctx context.Context) (*domain.RunStats, error) {
	startTime := time.Now()
	run := &domain.RunStats{RunID: uuid.New()}
	logger := s.logger.With("run_id", run.RunID)

	list, err := s.channels.Channels()
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	marks, err := ResolveWatermarks(ctx, s.watermarks, list)
	if err != nil {
		return nil, fmt.Errorf("resolve watermarks: %w", err)
	}

	logger.Info("starting sync", "channels", len(list))

	for i, channelURL := range list {
		if err := ctx.Err(); err != nil {
			run.Duration = time.Since(startTime)
			return run, err
		}

		chLogger := logger.With("channel", channelURL)
		stats := s.syncChannel(ctx, chLogger, channelURL, marks.For(channelURL))
		s.finishChannel(ctx, chLogger, run.RunID, stats)
		run.Channels = append(run.Channels, stats)

		chLogger.Info("channel done",
			"progress", fmt.Sprintf("%d/%d", i+1, len(list)),
			"duration", stats.Duration,
		)
	}

	run.Duration = time.Since(startTime)

	logger.Info("sync completed",
		"channels", len(run.Channels),
		"failed_channels", run.FailedChannels(),
		"inserted", run.Inserted(),
		"duration", run.Duration,
	)

	return run, nil
}

func (s *SyncService) syncChannel(ctx context.Context, logger *slog.Logger, channelURL string, watermark time.Time) (stats domain.ChannelStats) {
	startTime := time.Now()
	stats = domain.ChannelStats{ChannelURL: channelURL, Watermark: watermark}
	defer func() { stats.Duration = time.Since(startTime) }()

	dir, err := os.MkdirTemp(s.workDir, "channel-*")
	if err != nil {
		stats.Err = fmt.Errorf("create work dir: %w", err)
		logger.Error("channel skipped", "error", stats.Err)
		return stats
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove work dir", "dir", dir, "error", err)
		}
	}()

	logger.Info("fetching channel", "after", watermark.Format(time.DateOnly))

	if err := s.fetcher.Fetch(ctx, channelURL, watermark, dir); err != nil {
		stats.FetchErr = err
		logger.Warn("fetcher failed, parsing partial output", "error", err)
	}

	batch, err := s.parser.ParseDir(dir, channelURL)
	if err != nil {
		stats.Err = fmt.Errorf("parse documents: %w", err)
		logger.Error("channel failed", "error", stats.Err)
		return stats
	}

	stats.Documents = batch.Total
	stats.Valid = len(batch.Valid)
	stats.Failed = len(batch.Failures)

	for _, f := range batch.Failures {
		logger.Warn("failed to parse document", "file", f.File, "reason", f.Reason)
	}
	logger.Info("parsed documents",
		"total", stats.Documents,
		"valid", stats.Valid,
		"failed", stats.Failed,
	)

	inserted, err := s.writer.Write(ctx, batch.Valid)
	stats.Inserted = inserted
	if err != nil {
		stats.Err = fmt.Errorf("write videos: %w", err)
		logger.Error("channel failed", "inserted", inserted, "error", stats.Err)
		return stats
	}

	logger.Info("channel synced",
		"inserted", stats.Inserted,
		"skipped", stats.Skipped(),
	)

	return stats
}

// finishChannel records bookkeeping for a finished channel. None of it can
// fail the pass.
func (s *SyncService) finishChannel(ctx context.Context, logger *slog.Logger, runID uuid.UUID, stats domain.ChannelStats) {
	if err := s.updateSyncState(ctx, stats); err != nil {
		logger.Error("failed to update sync state", "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, runID, stats); err != nil {
			logger.Error("failed to publish channel report", "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveChannel(stats)
	}
}

func (s *SyncService) updateSyncState(ctx context.Context, stats domain.ChannelStats) error {
	state, err := s.syncState.Get(ctx, stats.ChannelURL)
	if err != nil {
		return err
	}

	watermark := stats.Watermark
	state.ChannelURL = stats.ChannelURL
	state.LastSyncedAt = time.Now()
	state.LastWatermark = &watermark
	state.TotalInserted += int64(stats.Inserted)
	state.LastError = nil

	switch {
	case stats.Err != nil:
		msg := stats.Err.Error()
		state.LastError = &msg
	case stats.FetchErr != nil:
		msg := stats.FetchErr.Error()
		state.LastError = &msg
	}

	return s.syncState.Update(ctx, state)
}
