package service

import (
	"time"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// State is one immutable snapshot of the dashboard. Every transition
// returns a new State; slices are replaced, never edited in place.
type State struct {
	Streams           []model.Stream
	Filtered          []model.Stream
	Search            string
	Filter            model.Filter
	Page              int
	PageSize          int
	TrendingThreshold int64
	Generation        uint64
	FetchedAt         time.Time
	Fallback          bool
}

// NewState returns an empty state on page 1 with the "all" filter.
func NewState(pageSize int, trendingThreshold int64) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Streams:           []model.Stream{},
		Filtered:          []model.Stream{},
		Filter:            model.FilterAll,
		Page:              1,
		PageSize:          pageSize,
		TrendingThreshold: trendingThreshold,
	}
}

// TotalPages of the filtered view.
func (s State) TotalPages() int {
	return TotalPages(len(s.Filtered), s.PageSize)
}

// WithSearch applies a new search term and returns to page 1.
func (s State) WithSearch(term string) State {
	s.Search = term
	return s.refilter().firstPage()
}

// WithFilter applies a new category filter and returns to page 1.
func (s State) WithFilter(f model.Filter) State {
	s.Filter = f
	return s.refilter().firstPage()
}

// WithPage moves to page n. It reports false and leaves the state unchanged
// when n is outside [1, TotalPages].
func (s State) WithPage(n int) (State, bool) {
	if n < 1 || n > s.TotalPages() {
		return s, false
	}
	s.Page = n
	return s, true
}

// WithSnapshot replaces the stream list, re-applies the current search and
// filter, and clamps the page into range.
func (s State) WithSnapshot(gen uint64, streams []model.Stream, fetchedAt time.Time, fallback bool) State {
	s.Streams = streams
	s.Generation = gen
	s.FetchedAt = fetchedAt
	s.Fallback = fallback
	s = s.refilter()
	if total := s.TotalPages(); s.Page > total {
		s.Page = max(total, 1)
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// View projects the state's current page.
func (s State) View() model.View {
	total := s.TotalPages()
	page := Paginate(s.Filtered, s.Page, s.PageSize)
	return model.View{
		Streams:       page,
		Search:        s.Search,
		Filter:        s.Filter,
		Page:          s.Page,
		PageSize:      s.PageSize,
		TotalPages:    total,
		TotalFiltered: len(s.Filtered),
		TotalStreams:  len(s.Streams),
		Empty:         len(page) == 0,
		Pagination:    BuildPagination(s.Page, total),
		Generation:    s.Generation,
		FetchedAt:     s.FetchedAt,
		Fallback:      s.Fallback,
	}
}

// Query projects an arbitrary query over the same snapshot without
// touching the receiver's search, filter or page. Pages past the end render
// empty, matching Paginate.
func (s State) Query(q model.Query) model.View {
	s.Search = q.Search
	s.Filter = q.Filter
	if s.Filter == "" {
		s.Filter = model.FilterAll
	}
	s.Page = max(q.Page, 1)
	return s.refilter().View()
}

func (s State) refilter() State {
	s.Filtered = FilterStreams(s.Streams, s.Search, s.Filter, s.TrendingThreshold)
	return s
}

func (s State) firstPage() State {
	s.Page = 1
	return s
}
