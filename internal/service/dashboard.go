package service

import (
	"sync"
	"time"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// Dashboard owns the process-wide dashboard state. All reads and writes go
// through it; callers only ever see copies in the form of model.View.
type Dashboard struct {
	mu     sync.RWMutex
	state  State
	issued uint64 // latest generation handed out by Begin
}

// NewDashboard creates an empty dashboard.
func NewDashboard(pageSize int, trendingThreshold int64) *Dashboard {
	return &Dashboard{state: NewState(pageSize, trendingThreshold)}
}

// Snapshot returns the current state value.
func (d *Dashboard) Snapshot() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// View returns the current page of the shared state.
func (d *Dashboard) View() model.View {
	return d.Snapshot().View()
}

// Query renders q against the current snapshot without changing the shared
// search, filter or page.
func (d *Dashboard) Query(q model.Query) model.View {
	return d.Snapshot().Query(q)
}

// Search sets the search term and resets to page 1.
func (d *Dashboard) Search(term string) model.View {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = d.state.WithSearch(term)
	return d.state.View()
}

// SetFilter sets the category filter and resets to page 1. The search
// term is kept.
func (d *Dashboard) SetFilter(f model.Filter) model.View {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = d.state.WithFilter(f)
	return d.state.View()
}

// GoToPage navigates to page n; out-of-range pages are ignored and
// reported as false.
func (d *Dashboard) GoToPage(n int) (model.View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, ok := d.state.WithPage(n)
	d.state = next
	return d.state.View(), ok
}

// Stream looks up a stream of the current snapshot by id.
func (d *Dashboard) Stream(id string) (model.Stream, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.state.Streams {
		if s.ID == id {
			return s, true
		}
	}
	return model.Stream{}, false
}

// Begin issues the generation number for a new refresh cycle.
func (d *Dashboard) Begin() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issued++
	return d.issued
}

// Commit installs a fetched snapshot if gen is still the most recently
// issued generation. A superseded cycle is dropped and Commit returns false.
func (d *Dashboard) Commit(gen uint64, streams []model.Stream, fetchedAt time.Time, fallback bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.issued {
		return false
	}
	d.state = d.state.WithSnapshot(gen, streams, fetchedAt, fallback)
	return true
}

// Generation returns the generation of the committed snapshot (0 before
// the first commit).
func (d *Dashboard) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Generation
}
