package model

import (
	"strings"
	"time"
)

// Filter is the coarse category selector of the dashboard.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterTrending Filter = "trending"
	FilterNew      Filter = "new"
)

// ParseFilter maps a user-supplied string onto a Filter. The empty string
// means FilterAll.
func ParseFilter(s string) (Filter, bool) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterTrending:
		return FilterTrending, true
	case FilterNew:
		return FilterNew, true
	}
	return "", false
}

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterTrending, FilterNew}

// Query selects a page of the filtered view.
type Query struct {
	Search string `json:"search"`
	Filter Filter `json:"filter"`
	Page   int    `json:"page"`
}

// PageItem is one element of the page-number strip: a page button or an
// ellipsis marker.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Active   bool `json:"active,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Pagination describes the navigation controls of a view.
type Pagination struct {
	Prev    int        `json:"prev"`
	Next    int        `json:"next"`
	HasPrev bool       `json:"hasPrev"`
	HasNext bool       `json:"hasNext"`
	Items   []PageItem `json:"items"`
}

// View is the projection of the dashboard state that gets rendered.
type View struct {
	Streams       []Stream    `json:"streams"`
	Search        string      `json:"search"`
	Filter        Filter      `json:"filter"`
	Page          int         `json:"page"`
	PageSize      int         `json:"pageSize"`
	TotalPages    int         `json:"totalPages"`
	TotalFiltered int         `json:"totalFiltered"`
	TotalStreams  int         `json:"totalStreams"`
	Empty         bool        `json:"empty"`
	Pagination    *Pagination `json:"pagination,omitempty"`
	Generation    uint64      `json:"generation"`
	FetchedAt     time.Time   `json:"fetchedAt"`
	Fallback      bool        `json:"fallback"`
}
