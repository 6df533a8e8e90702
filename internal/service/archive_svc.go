package service

import (
	"context"
	"errors"
	"time"

	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/model"
	"github.com/mathieu-neron/pumpwatch/internal/repository"
)

// ErrArchiveDisabled is returned by history lookups when no database is
// configured.
var ErrArchiveDisabled = errors.New("snapshot archive disabled")

// DefaultHistoryLimit is the number of samples returned when none is asked for.
const DefaultHistoryLimit = 50

// SnapshotStore is the persistence behind the archive.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, gen uint64, sampledAt time.Time, streams []model.Stream) (int, error)
	History(ctx context.Context, streamID string, limit int) ([]model.StreamSample, error)
}

var _ SnapshotStore = (*repository.SnapshotRepo)(nil)

// ArchiveService appends committed snapshots to the sample history. A nil
// *ArchiveService or a nil store disables it.
type ArchiveService struct {
	store SnapshotStore
}

func NewArchiveService(store SnapshotStore) *ArchiveService {
	return &ArchiveService{store: store}
}

// Enabled reports whether samples are being recorded.
func (a *ArchiveService) Enabled() bool {
	return a != nil && a.store != nil
}

// Record stores one sample per stream of a committed snapshot.
func (a *ArchiveService) Record(ctx context.Context, gen uint64, at time.Time, streams []model.Stream) error {
	if !a.Enabled() {
		return nil
	}
	n, err := a.store.InsertSnapshot(ctx, gen, at, streams)
	metrics.ArchivedSamples.Add(float64(n))
	return err
}

// History returns up to limit recent samples of one stream.
func (a *ArchiveService) History(ctx context.Context, streamID string, limit int) ([]model.StreamSample, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, repository.MaxHistoryLimit)
	return a.store.History(ctx, streamID, limit)
}
