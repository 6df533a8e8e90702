package repository

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// MaxHistoryLimit caps History queries.
const MaxHistoryLimit = 500

// MaxStreamIDLen is the width of the stream_id column.
const MaxStreamIDLen = 64

const schema = `
CREATE TABLE IF NOT EXISTS stream_samples (
	id          BIGSERIAL PRIMARY KEY,
	generation  BIGINT           NOT NULL,
	sampled_at  TIMESTAMPTZ      NOT NULL,
	stream_id   VARCHAR(64)      NOT NULL,
	viewers     BIGINT           NOT NULL DEFAULT 0,
	likes       BIGINT           NOT NULL DEFAULT 0,
	holders     BIGINT           NOT NULL DEFAULT 0,
	market_cap  DOUBLE PRECISION NOT NULL DEFAULT 0,
	status      VARCHAR(8)       NOT NULL
);
CREATE INDEX IF NOT EXISTS stream_samples_stream_time
	ON stream_samples (stream_id, sampled_at DESC);`

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// EnsureSchema creates the samples table if it does not exist.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertSnapshot writes one sample row per stream in a single batch. Streams
// whose id does not fit the column are skipped; the batch runs as one
// transaction and a single oversized id would otherwise drop every row.
func (r *SnapshotRepo) InsertSnapshot(ctx context.Context, gen uint64, sampledAt time.Time, streams []model.Stream) (int, error) {
	rows := Archivable(streams)
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(`
			INSERT INTO stream_samples
				(generation, sampled_at, stream_id, viewers, likes, holders, market_cap, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			int64(gen), sampledAt, s.ID, s.Viewers, s.Likes, s.Holders, s.MarketCap, string(s.Status))
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert sample: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Archivable returns the streams whose ids fit the stream_id column, in order.
func Archivable(streams []model.Stream) []model.Stream {
	out := make([]model.Stream, 0, len(streams))
	for _, s := range streams {
		if s.ID == "" || utf8.RuneCountInString(s.ID) > MaxStreamIDLen {
			continue
		}
		out = append(out, s)
	}
	return out
}

// History returns the newest samples of a stream, most recent first.
func (r *SnapshotRepo) History(ctx context.Context, streamID string, limit int) ([]model.StreamSample, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT generation, sampled_at, stream_id, viewers, likes, holders, market_cap, status
		FROM stream_samples
		WHERE stream_id = $1
		ORDER BY sampled_at DESC
		LIMIT $2`, streamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []model.StreamSample{}
	for rows.Next() {
		var (
			s         model.StreamSample
			gen       int64
			sampledAt time.Time
			status    string
		)
		if err := rows.Scan(&gen, &sampledAt, &s.StreamID, &s.Viewers, &s.Likes, &s.Holders, &s.MarketCap, &status); err != nil {
			return nil, err
		}
		s.Generation = uint64(gen)
		s.SampledAt = sampledAt.UTC().Format(time.RFC3339)
		s.Status = model.Status(status)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
