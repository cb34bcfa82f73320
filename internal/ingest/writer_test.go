package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"channel_mirror/internal/domain"
	"channel_mirror/internal/ingest/mocks"
)

type WriterTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	videos    *mocks.MockVideoStore
	txManager *mocks.MockTransactionManager

	writer *Writer
	logger *slog.Logger
}

func (s *WriterTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.videos = mocks.NewMockVideoStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.writer = NewWriter(s.videos, s.txManager, DefaultChunkSize, s.logger)
}

func (s *WriterTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestWriterTestSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func makeVideos(n int) []domain.Video {
	videos := make([]domain.Video, n)
	for i := range videos {
		videos[i] = domain.Video{
			ID:         fmt.Sprintf("video-%05d", i),
			ChannelURL: "https://example.com/channel",
			WebpageURL: fmt.Sprintf("https://example.com/watch?v=%d", i),
			Channel:    "Example",
			Title:      "title",
			UploadDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return videos
}

func (s *WriterTestSuite) passThroughTx(times int) {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).Times(times).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *WriterTestSuite) TestWrite_ChunksLargeBatches() {
	ctx := context.Background()
	videos := makeVideos(2500)

	var sizes []int
	var firstIDs []string
	s.passThroughTx(3)
	s.videos.EXPECT().InsertBatch(ctx, gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, chunk []domain.Video) (int64, error) {
			sizes = append(sizes, len(chunk))
			firstIDs = append(firstIDs, chunk[0].ID)
			return int64(len(chunk)), nil
		},
	)

	inserted, err := s.writer.Write(ctx, videos)

	s.NoError(err)
	s.Equal(2500, inserted)
	s.Equal([]int{1000, 1000, 500}, sizes)
	s.Equal([]string{"video-00000", "video-01000", "video-02000"}, firstIDs)
}

func (s *WriterTestSuite) TestWrite_SmallBatchSingleTransaction() {
	ctx := context.Background()
	videos := makeVideos(10)

	s.passThroughTx(1)
	s.videos.EXPECT().InsertBatch(ctx, videos).Return(int64(10), nil)

	inserted, err := s.writer.Write(ctx, videos)

	s.NoError(err)
	s.Equal(10, inserted)
}

func (s *WriterTestSuite) TestWrite_ExactlyOneChunk() {
	ctx := context.Background()
	videos := makeVideos(DefaultChunkSize)

	s.passThroughTx(1)
	s.videos.EXPECT().InsertBatch(ctx, videos).Return(int64(DefaultChunkSize), nil)

	inserted, err := s.writer.Write(ctx, videos)

	s.NoError(err)
	s.Equal(DefaultChunkSize, inserted)
}

func (s *WriterTestSuite) TestWrite_DuplicatesAreSkipped() {
	ctx := context.Background()
	videos := makeVideos(5)

	s.passThroughTx(1)
	s.videos.EXPECT().InsertBatch(ctx, videos).Return(int64(0), nil)

	inserted, err := s.writer.Write(ctx, videos)

	s.NoError(err)
	s.Equal(0, inserted)
}

func (s *WriterTestSuite) TestWrite_Empty() {
	inserted, err := s.writer.Write(context.Background(), nil)

	s.NoError(err)
	s.Equal(0, inserted)
}

func (s *WriterTestSuite) TestWrite_ChunkFailureStopsWrite() {
	ctx := context.Background()
	videos := makeVideos(2500)
	dbErr := errors.New("connection reset")

	s.passThroughTx(2)
	gomock.InOrder(
		s.videos.EXPECT().InsertBatch(ctx, videos[:1000]).Return(int64(1000), nil),
		s.videos.EXPECT().InsertBatch(ctx, videos[1000:2000]).Return(int64(0), dbErr),
	)

	inserted, err := s.writer.Write(ctx, videos)

	s.Error(err)
	s.ErrorIs(err, dbErr)
	s.Contains(err.Error(), "write chunk 1")
	s.Equal(1000, inserted)
}

func (s *WriterTestSuite) TestWrite_CustomChunkSize() {
	ctx := context.Background()
	writer := NewWriter(s.videos, s.txManager, 2, s.logger)
	videos := makeVideos(5)

	s.passThroughTx(3)
	gomock.InOrder(
		s.videos.EXPECT().InsertBatch(ctx, videos[0:2]).Return(int64(2), nil),
		s.videos.EXPECT().InsertBatch(ctx, videos[2:4]).Return(int64(1), nil),
		s.videos.EXPECT().InsertBatch(ctx, videos[4:5]).Return(int64(1), nil),
	)

	inserted, err := writer.Write(ctx, videos)

	s.NoError(err)
	s.Equal(4, inserted)
}
