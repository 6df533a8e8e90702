package model

// Status is the live state of a stream.
type Status string

const (
	StatusLive    Status = "live"
	StatusOffline Status = "offline"
)

// MaxTags is the upper bound on Stream.Tags.
const MaxTags = 4

// Stream is the canonical record built from one upstream record.
// A Stream is never mutated after normalization; a refresh replaces the
// whole snapshot.
type Stream struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Symbol      string   `json:"symbol"`
	Description string   `json:"description"`
	Viewers     int64    `json:"viewers"`
	Likes       int64    `json:"likes"`
	Holders     int64    `json:"holders"`
	ChatMembers int64    `json:"chatMembers"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
	MarketCap   float64  `json:"marketCap"`
	Twitter     string   `json:"twitter,omitempty"`
	Website     string   `json:"website,omitempty"`
	Created     *int64   `json:"created,omitempty"`
	LastTrade   *int64   `json:"lastTrade,omitempty"`
}

// IsLive reports whether the stream is currently broadcasting.
func (s Stream) IsLive() bool {
	return s.Status == StatusLive
}

// HasTag reports whether tag is present, compared exactly.
func (s Stream) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StreamDetail is the response for a card click.
type StreamDetail struct {
	Stream Stream `json:"stream"`
	URL    string `json:"url"`
}

// StreamSample is one archived observation of a stream.
type StreamSample struct {
	Generation uint64  `json:"generation"`
	SampledAt  string  `json:"sampledAt"`
	StreamID   string  `json:"streamId"`
	Viewers    int64   `json:"viewers"`
	Likes      int64   `json:"likes"`
	Holders    int64   `json:"holders"`
	MarketCap  float64 `json:"marketCap"`
	Status     Status  `json:"status"`
}
