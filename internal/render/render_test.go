package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

func renderView(t *testing.T, v model.View) string {
	t.Helper()
	r, err := New(30 * time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, v); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRender_Cards(t *testing.T) {
	v := model.View{
		Streams: []model.Stream{
			{ID: "s1", Title: "PEPE Analysis", Symbol: "PEPE", Status: model.StatusLive, Viewers: 1260, Tags: []string{"Live", "PEPE"}},
			{ID: "s2", Title: "Quiet", Symbol: "QT", Status: model.StatusOffline},
		},
		Filter:       model.FilterAll,
		Page:         1,
		TotalPages:   1,
		TotalStreams: 2,
	}

	out := renderView(t, v)

	for _, want := range []string{
		`data-action="open-stream" data-stream-id="s1"`,
		`data-action="open-stream" data-stream-id="s2"`,
		"PEPE Analysis",
		"1.3K",
		"LIVE",
		"OFFLINE",
		`data-action="filter" data-value="trending"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `id="pagination"`) {
		t.Error("pagination should be suppressed for a single page")
	}
	if strings.Contains(out, "onclick") {
		t.Error("cards must not embed handler code")
	}
}

func TestRender_EmptyState(t *testing.T) {
	out := renderView(t, model.View{Streams: []model.Stream{}, Empty: true, Filter: model.FilterNew})
	if !strings.Contains(out, "No streams found") {
		t.Error("empty view should render the no-results placeholder")
	}
	if !strings.Contains(out, `class="filter-btn active" data-action="filter" data-value="new"`) {
		t.Error("active filter button not marked")
	}
}

func TestRender_Pagination(t *testing.T) {
	v := model.View{
		Streams:    []model.Stream{{ID: "x", Title: "x"}},
		Page:       1,
		TotalPages: 2,
		Pagination: &model.Pagination{
			Prev: 0, Next: 2, HasPrev: false, HasNext: true,
			Items: []model.PageItem{{Page: 1, Active: true}, {Page: 2}},
		},
	}
	out := renderView(t, v)
	if !strings.Contains(out, `id="pagination"`) {
		t.Fatal("pagination should render for two pages")
	}
	if !strings.Contains(out, `data-action="page" data-value="2"`) {
		t.Error("page 2 button missing")
	}
	if !strings.Contains(out, `<button disabled data-action="page" data-value="0">`) {
		t.Error("previous button should be disabled on page 1")
	}
}

func TestRender_StripsUpstreamMarkup(t *testing.T) {
	v := model.View{Streams: []model.Stream{{
		ID:          "x",
		Title:       "<b>Bold</b> & brave",
		Description: `<script>alert(1)</script>hello`,
	}}}
	out := renderView(t, v)
	if strings.Contains(out, "<b>Bold</b>") || strings.Contains(out, "alert(1)") {
		t.Error("upstream markup should be stripped")
	}
	if !strings.Contains(out, "Bold &amp; brave") {
		t.Error("plain text should survive, escaped once")
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1260, "1.3K"},
		{2100, "2.1K"},
		{1_500_000, "1.5M"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(61234.75); got != "$61,235" {
		t.Errorf("FormatUSD = %q", got)
	}
	if got := FormatUSD(0); got != "$0" {
		t.Errorf("FormatUSD(0) = %q", got)
	}
}

func TestTimeAgo_Nil(t *testing.T) {
	if got := TimeAgo(nil); got != "" {
		t.Errorf("TimeAgo(nil) = %q, want empty", got)
	}
	ms := time.Now().Add(-3 * time.Hour).UnixMilli()
	if got := TimeAgo(&ms); !strings.Contains(got, "hours ago") {
		t.Errorf("TimeAgo(-3h) = %q", got)
	}
}

func TestStripMarkup(t *testing.T) {
	p := bluemonday.StrictPolicy()
	if got := StripMarkup(p, `<i>a</i> &amp; b`); got != "a & b" {
		t.Errorf("StripMarkup = %q", got)
	}
}
