package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// Placeholders substituted for absent upstream fields.
const (
	DefaultTitle       = "Unknown Stream"
	DefaultSymbol      = "N/A"
	DefaultDescription = "No description available"
	DefaultThumbnail   = "https://via.placeholder.com/300x200/667eea/ffffff?text=No+Image"
)

// Tag thresholds.
const (
	popularViewers = 100
	highCapUSD     = 50000
	activeReplies  = 50
	newAge         = time.Hour
	freshAge       = 24 * time.Hour
)

// Normalizer maps upstream records onto canonical streams.
type Normalizer struct {
	Now func() time.Time
}

// NewNormalizer returns a Normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// NormalizeAll normalizes a batch, preserving order.
func (n *Normalizer) NormalizeAll(raws []model.RawRecord) []model.Stream {
	streams := make([]model.Stream, 0, len(raws))
	for _, r := range raws {
		streams = append(streams, n.Normalize(r))
	}
	return streams
}

// Normalize builds a Stream, applying a default for every absent field.
func (n *Normalizer) Normalize(r model.RawRecord) model.Stream {
	s := model.Stream{
		ID:          string(r.ID),
		Title:       orDefault(r.Name, DefaultTitle),
		Symbol:      orDefault(r.Symbol, DefaultSymbol),
		Description: orDefault(r.Description, DefaultDescription),
		Viewers:     nonNegative(r.NumParticipants.Int64()),
		Likes:       nonNegative(r.ReplyCount.Int64()),
		Holders:     nonNegative(r.Holders.Int64()),
		ChatMembers: nonNegative(r.ChatMembers.Int64()),
		Status:      model.StatusOffline,
		Thumbnail:   orDefault(r.Thumbnail, orDefault(r.ImageURI, DefaultThumbnail)),
		MarketCap:   max(r.USDMarketCap.Float64(), 0),
		Twitter:     r.Twitter,
		Website:     r.Website,
		Created:     timestamp(r.CreatedTimestamp),
		LastTrade:   timestamp(r.LastTradeTimestamp),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if r.IsCurrentlyLive {
		s.Status = model.StatusLive
	}
	s.Tags = n.deriveTags(r, s)
	return s
}

// deriveTags applies the tag heuristics in their fixed order and keeps the
// first MaxTags matches.
func (n *Normalizer) deriveTags(r model.RawRecord, s model.Stream) []string {
	tags := make([]string, 0, 7)

	if r.IsCurrentlyLive {
		tags = append(tags, "Live")
	}
	if s.Viewers > popularViewers {
		tags = append(tags, "Popular")
	}
	if s.MarketCap > highCapUSD {
		tags = append(tags, "High Cap")
	}
	if s.Likes > activeReplies {
		tags = append(tags, "Active")
	}
	if r.Symbol != "" {
		tags = append(tags, r.Symbol)
	}
	if s.Created != nil {
		age := n.Now().Sub(time.UnixMilli(*s.Created))
		if age < newAge {
			tags = append(tags, "New")
		}
		if age < freshAge {
			tags = append(tags, "Fresh")
		}
	}

	if len(tags) > model.MaxTags {
		tags = tags[:model.MaxTags]
	}
	return tags
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// timestamp returns nil for absent or zero timestamps.
func timestamp(n model.Number) *int64 {
	if n.IsZero() {
		return nil
	}
	ms := n.Int64()
	return &ms
}
