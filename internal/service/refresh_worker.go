package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/upstream"
)

// DefaultRefreshInterval is the period of the automatic refresh.
const DefaultRefreshInterval = 30 * time.Second

// Refresh triggers, used as log fields and metric labels.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
	TriggerEvent    = "event"
)

// Fetcher retrieves raw records. Implementations never fail outright; they
// substitute a fallback record and report the cause in Result.Err.
type Fetcher interface {
	Fetch(ctx context.Context) upstream.Result
}

// RefreshStatus summarizes the most recent completed cycle.
type RefreshStatus struct {
	CycleID    string    `json:"cycleId"`
	Trigger    string    `json:"trigger"`
	Generation uint64    `json:"generation"`
	Outcome    string    `json:"outcome"`
	Streams    int       `json:"streams"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Refresher runs the fetch → normalize → commit pipeline on a timer and on
// demand. Cycles may overlap; the dashboard's generation check makes sure
// only the most recently started cycle lands.
type Refresher struct {
	fetcher    Fetcher
	normalizer *Normalizer
	dash       *Dashboard
	archive    *ArchiveService
	log        zerolog.Logger
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu   sync.RWMutex
	last RefreshStatus
}

// NewRefresher creates a refresher that ticks every interval. archive may
// be nil.
func NewRefresher(fetcher Fetcher, normalizer *Normalizer, dash *Dashboard, archive *ArchiveService, log zerolog.Logger, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		fetcher:    fetcher,
		normalizer: normalizer,
		dash:       dash,
		archive:    archive,
		log:        log.With().Str("component", "refresher").Logger(),
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start refreshes once immediately, then every interval, until ctx is
// cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("starting")

	r.RefreshNow(ctx, TriggerStartup)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RefreshNow(ctx, TriggerInterval)
		case <-ctx.Done():
			r.log.Info().Msg("stopping (context cancelled)")
			return
		case <-r.stopCh:
			r.log.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RefreshNow runs one full cycle in the caller's goroutine.
func (r *Refresher) RefreshNow(ctx context.Context, trigger string) RefreshStatus {
	cycleID := uuid.NewString()
	gen := r.dash.Begin()

	res := r.fetcher.Fetch(ctx)
	metrics.FetchDuration.Observe(res.Duration.Seconds())

	streams := r.normalizer.NormalizeAll(res.Records)
	fetchedAt := time.Now()
	committed := r.dash.Commit(gen, streams, fetchedAt, res.Fallback)

	status := RefreshStatus{
		CycleID:    cycleID,
		Trigger:    trigger,
		Generation: gen,
		Streams:    len(streams),
		FinishedAt: fetchedAt,
	}
	switch {
	case !committed:
		status.Outcome = metrics.OutcomeStale
	case res.Fallback:
		status.Outcome = metrics.OutcomeFallback
	default:
		status.Outcome = metrics.OutcomeCommitted
	}
	if res.Err != nil {
		status.Error = res.Err.Error()
	}
	metrics.RefreshTotal.WithLabelValues(trigger, status.Outcome).Inc()

	evt := r.log.Info()
	if res.Err != nil {
		evt = r.log.Warn().Err(res.Err)
	}
	evt.
		Str("cycle_id", cycleID).
		Str("trigger", trigger).
		Uint64("generation", gen).
		Str("outcome", status.Outcome).
		Int("streams", len(streams)).
		Dur("fetch_ms", res.Duration).
		Msg("refresh complete")

	if !committed {
		return status
	}

	metrics.SnapshotStreams.Set(float64(len(streams)))
	r.setLast(status)

	if !res.Fallback && r.archive != nil {
		if err := r.archive.Record(ctx, gen, fetchedAt, streams); err != nil {
			r.log.Error().Err(err).Str("cycle_id", cycleID).Msg("archive snapshot failed")
		}
	}
	return status
}

// LastStatus returns the most recent committed cycle. The zero value means
// nothing has been committed yet.
func (r *Refresher) LastStatus() RefreshStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Interval returns the automatic refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

func (r *Refresher) setLast(s RefreshStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = s
}
