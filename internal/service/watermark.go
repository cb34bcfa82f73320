package service

import (
	"context"
	"time"

	"channel_mirror/internal/domain"
)

// Watermarks maps a channel URL to the newest upload date already stored.
type Watermarks map[string]time.Time

// For returns the lower fetch bound of a channel. Channels with nothing
// stored start at the epoch so that everything is fetched.
func (w Watermarks) For(channelURL string) time.Time {
	if t, ok := w[channelURL]; ok {
		return t
	}
	return domain.EpochFloor
}

// ResolveWatermarks loads the watermarks of all channels with one aggregate
// query.
func ResolveWatermarks(ctx context.Context, store WatermarkStore, channels []string) (Watermarks, error) {
	latest, err := store.LatestUploadByChannel(ctx, channels)
	if err != nil {
		return nil, err
	}
	return Watermarks(latest), nil
}
