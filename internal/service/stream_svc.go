package service

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// StreamService answers read-only queries over the committed snapshot.
type StreamService struct {
	dash      *Dashboard
	cache     *CacheService
	archive   *ArchiveService
	detailURL string
	log       zerolog.Logger
}

func NewStreamService(dash *Dashboard, cache *CacheService, archive *ArchiveService, detailURL string, log zerolog.Logger) *StreamService {
	return &StreamService{
		dash:      dash,
		cache:     cache,
		archive:   archive,
		detailURL: detailURL,
		log:       log.With().Str("component", "streams").Logger(),
	}
}

// List renders q against the current snapshot.
// Uses cache-aside: check Redis first, compute on a miss, then populate.
func (s *StreamService) List(ctx context.Context, q model.Query) model.View {
	snap := s.dash.Snapshot()

	if s.cache.Enabled() {
		cached, err := s.cache.GetView(ctx, snap.Generation, q)
		if err != nil {
			s.log.Warn().Err(err).Msg("cache get failed")
		} else if cached != nil {
			metrics.CacheHits.Inc()
			return *cached
		}
		metrics.CacheMisses.Inc()
	}

	view := snap.Query(q)

	if s.cache.Enabled() {
		if err := s.cache.SetView(ctx, snap.Generation, q, view); err != nil {
			s.log.Warn().Err(err).Msg("cache set failed")
		}
	}
	return view
}

// Detail returns the stream with its external link. This is the target of
// a card click.
func (s *StreamService) Detail(id string) (*model.StreamDetail, bool) {
	st, ok := s.dash.Stream(id)
	if !ok {
		return nil, false
	}
	return &model.StreamDetail{Stream: st, URL: s.DetailURL(id)}, true
}

// DetailURL joins the configured detail base with a stream id.
func (s *StreamService) DetailURL(id string) string {
	if s.detailURL == "" {
		return ""
	}
	return s.detailURL + url.PathEscape(id)
}

// History returns archived samples for a stream.
func (s *StreamService) History(ctx context.Context, id string, limit int) ([]model.StreamSample, error) {
	return s.archive.History(ctx, id, limit)
}
