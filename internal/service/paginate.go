package service

import "github.com/mathieu-neron/pumpwatch/internal/model"

// DefaultPageSize is the number of cards per dashboard page.
const DefaultPageSize = 12

// windowRadius is how many pages either side of the current one get a button.
const windowRadius = 2

// TotalPages returns ceil(n/size), or 0 when size is not positive.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns the 1-based page of items, clipped to the slice bounds.
// Pages outside the data yield an empty, non-nil slice.
func Paginate(items []model.Stream, page, size int) []model.Stream {
	if page < 1 || size <= 0 {
		return []model.Stream{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []model.Stream{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// PageWindow lists the page buttons to show around current. The first and
// last pages are always present, neighbours within windowRadius are shown,
// and a single ellipsis stands at current-3 and current+3 when those pages
// are not otherwise shown.
func PageWindow(current, total int) []model.PageItem {
	items := make([]model.PageItem, 0, 2*windowRadius+5)
	for i := 1; i <= total; i++ {
		switch {
		case i == 1 || i == total || (i >= current-windowRadius && i <= current+windowRadius):
			items = append(items, model.PageItem{Page: i, Active: i == current})
		case i == current-windowRadius-1 || i == current+windowRadius+1:
			items = append(items, model.PageItem{Ellipsis: true})
		}
	}
	return items
}

// BuildPagination returns the navigation controls, or nil when everything
// fits on one page. A current page outside [1, total] is clamped for the
// window and the prev/next targets, and no button is marked active.
func BuildPagination(current, total int) *model.Pagination {
	if total <= 1 {
		return nil
	}
	anchor := min(max(current, 1), total)

	items := PageWindow(anchor, total)
	if anchor != current {
		for i := range items {
			items[i].Active = false
		}
	}

	p := &model.Pagination{
		Prev:    anchor - 1,
		Next:    anchor + 1,
		HasPrev: anchor > 1,
		HasNext: anchor < total,
		Items:   items,
	}
	if current > total {
		// Past the end, "previous" leads back to the last real page.
		p.Prev, p.HasPrev = total, true
		p.HasNext = false
	}
	return p
}
