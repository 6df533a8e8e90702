package service

import (
	"strings"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// DefaultTrendingThreshold is the viewer count a stream must exceed to be
// listed under the trending filter.
const DefaultTrendingThreshold = 100

// FilterStreams returns the streams matching both the search term and the
// category filter, in their original order. The result is never nil.
func FilterStreams(streams []model.Stream, term string, filter model.Filter, trendingThreshold int64) []model.Stream {
	term = strings.ToLower(term)
	out := make([]model.Stream, 0, len(streams))
	for _, s := range streams {
		if matchesSearch(s, term) && matchesFilter(s, filter, trendingThreshold) {
			out = append(out, s)
		}
	}
	return out
}

// matchesSearch expects term to be lower-cased already.
func matchesSearch(s model.Stream, term string) bool {
	if term == "" {
		return true
	}
	if containsFold(s.Title, term) || containsFold(s.Symbol, term) || containsFold(s.Description, term) {
		return true
	}
	for _, tag := range s.Tags {
		if containsFold(tag, term) {
			return true
		}
	}
	return false
}

func matchesFilter(s model.Stream, filter model.Filter, trendingThreshold int64) bool {
	switch filter {
	case model.FilterTrending:
		return s.Viewers > trendingThreshold
	case model.FilterNew:
		return s.HasTag("New")
	default:
		return true
	}
}

func containsFold(field, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(field), lowerTerm)
}
