package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/pumpwatch/internal/events"
	"github.com/mathieu-neron/pumpwatch/internal/model"
	"github.com/mathieu-neron/pumpwatch/internal/render"
	"github.com/mathieu-neron/pumpwatch/internal/service"
	"github.com/mathieu-neron/pumpwatch/internal/upstream"
)

type fakeFetcher struct {
	res upstream.Result
}

func (f *fakeFetcher) Fetch(context.Context) upstream.Result { return f.res }

type testEnv struct {
	app       *fiber.App
	dash      *service.Dashboard
	refresher *service.Refresher
	fetcher   *fakeFetcher
}

func liveRecords(n int) []model.RawRecord {
	out := make([]model.RawRecord, n)
	for i := range out {
		id := string(rune('a' + i))
		out[i] = model.RawRecord{
			ID:              model.FlexID(id),
			Name:            "Stream " + id,
			Symbol:          strings.ToUpper(id),
			IsCurrentlyLive: true,
			NumParticipants: model.NewNumber(float64(i * 20)),
		}
	}
	return out
}

// newTestEnv wires handlers the way the server does, minus rate limits, and
// commits one snapshot of n records.
func newTestEnv(t *testing.T, n int) *testEnv {
	t.Helper()

	fetcher := &fakeFetcher{res: upstream.Result{Records: liveRecords(n)}}
	dash := service.NewDashboard(12, service.DefaultTrendingThreshold)
	refresher := service.NewRefresher(fetcher, service.NewNormalizer(), dash, nil, zerolog.Nop(), time.Hour)
	streams := service.NewStreamService(dash, service.NewCacheServiceWithClient(nil, 0), nil, "https://pump.fun/coin/", zerolog.Nop())

	renderer, err := render.New(time.Minute)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	binder := events.NewBinder()
	BindDashboardEvents(binder, dash, streams, refresher)

	refresher.RefreshNow(context.Background(), service.TriggerStartup)

	app := fiber.New()
	page := NewPageHandler(dash, renderer)
	dh := NewDashboardHandler(dash, refresher)
	sh := NewStreamHandler(streams)
	eh := NewEventHandler(binder)
	hh := NewHealthHandler(refresher, dash, nil, nil)

	app.Get("/", page.Index)
	app.Get("/health/live", hh.Live)
	app.Get("/health/ready", hh.Ready)
	app.Get("/api/dashboard", dh.View)
	app.Post("/api/dashboard/search", dh.Search)
	app.Post("/api/dashboard/filter", dh.Filter)
	app.Post("/api/dashboard/page/:page", dh.Page)
	app.Post("/api/refresh", dh.Refresh)
	app.Get("/api/streams", sh.List)
	app.Get("/api/streams/:id", sh.Get)
	app.Get("/api/streams/:id/history", sh.History)
	app.Post("/api/events", eh.Dispatch)

	return &testEnv{app: app, dash: dash, refresher: refresher, fetcher: fetcher}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, b
}

func decodeView(t *testing.T, b []byte) model.View {
	t.Helper()
	var v model.View
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode view: %v (%s)", err, b)
	}
	return v
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("decode error: %v (%s)", err, b)
	}
	return body.Error.Code
}

func TestDashboard_SearchFilterPage(t *testing.T) {
	env := newTestEnv(t, 20)

	status, body := env.do(t, http.MethodPost, "/api/dashboard/page/2", "")
	if status != http.StatusOK || decodeView(t, body).Page != 2 {
		t.Fatalf("page 2: %d %s", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/dashboard/search", `{"term":"stream"}`)
	v := decodeView(t, body)
	if status != http.StatusOK || v.Page != 1 || v.Search != "stream" || v.TotalFiltered != 20 {
		t.Errorf("search: %d %+v", status, v)
	}

	status, body = env.do(t, http.MethodPost, "/api/dashboard/filter", `{"filter":"trending"}`)
	v = decodeView(t, body)
	// Viewers are 0, 20, ..., 380; indexes 6-19 are above 100.
	if status != http.StatusOK || v.Filter != model.FilterTrending || v.TotalFiltered != 14 {
		t.Errorf("filter: %d %+v", status, v)
	}
	if v.Search != "stream" {
		t.Error("filter change dropped the search term")
	}

	_, body = env.do(t, http.MethodGet, "/api/dashboard", "")
	if got := decodeView(t, body); got.Filter != model.FilterTrending {
		t.Errorf("shared view = %+v", got)
	}
}

func TestDashboard_PageOutOfRange(t *testing.T) {
	env := newTestEnv(t, 5)

	for _, target := range []string{"/api/dashboard/page/2", "/api/dashboard/page/0", "/api/dashboard/page/x"} {
		status, body := env.do(t, http.MethodPost, target, "")
		if status != http.StatusBadRequest || errorCode(t, body) != "INVALID_PAGE" {
			t.Errorf("%s: %d %s", target, status, body)
		}
	}
}

func TestDashboard_InvalidBodies(t *testing.T) {
	env := newTestEnv(t, 5)

	status, body := env.do(t, http.MethodPost, "/api/dashboard/filter", `{"filter":"hot"}`)
	if status != http.StatusBadRequest || errorCode(t, body) != "INVALID_FILTER" {
		t.Errorf("unknown filter: %d %s", status, body)
	}
	status, body = env.do(t, http.MethodPost, "/api/dashboard/search", `{"term":`)
	if status != http.StatusBadRequest || errorCode(t, body) != "INVALID_BODY" {
		t.Errorf("malformed body: %d %s", status, body)
	}
}

func TestDashboard_Refresh(t *testing.T) {
	env := newTestEnv(t, 3)
	env.fetcher.res = upstream.Result{Records: liveRecords(7)}

	status, body := env.do(t, http.MethodPost, "/api/refresh", "")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var resp struct {
		Refresh service.RefreshStatus `json:"refresh"`
		View    model.View            `json:"view"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Refresh.Trigger != service.TriggerManual || resp.Refresh.Generation != 2 {
		t.Errorf("refresh = %+v", resp.Refresh)
	}
	if resp.View.TotalStreams != 7 {
		t.Errorf("total = %d, want 7", resp.View.TotalStreams)
	}
}

func TestStreams_ListIsStateless(t *testing.T) {
	env := newTestEnv(t, 20)

	status, body := env.do(t, http.MethodGet, "/api/streams?q=stream&filter=all&page=2", "")
	v := decodeView(t, body)
	if status != http.StatusOK || v.Page != 2 || len(v.Streams) != 8 {
		t.Errorf("list: %d page=%d len=%d", status, v.Page, len(v.Streams))
	}
	if shared := env.dash.View(); shared.Search != "" || shared.Page != 1 {
		t.Errorf("shared state changed: %+v", shared)
	}

	status, body = env.do(t, http.MethodGet, "/api/streams?page=-1", "")
	if status != http.StatusBadRequest || errorCode(t, body) != "INVALID_PARAM" {
		t.Errorf("bad page: %d %s", status, body)
	}
}

func TestStreams_Get(t *testing.T) {
	env := newTestEnv(t, 3)

	status, body := env.do(t, http.MethodGet, "/api/streams/b", "")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var d model.StreamDetail
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	if d.Stream.ID != "b" || d.URL != "https://pump.fun/coin/b" {
		t.Errorf("detail = %+v", d)
	}

	status, body = env.do(t, http.MethodGet, "/api/streams/zzz", "")
	if status != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Errorf("missing: %d %s", status, body)
	}
}

func TestStreams_HistoryWithoutArchive(t *testing.T) {
	env := newTestEnv(t, 3)

	status, body := env.do(t, http.MethodGet, "/api/streams/a/history", "")
	if status != http.StatusServiceUnavailable || errorCode(t, body) != "ARCHIVE_DISABLED" {
		t.Errorf("got %d %s", status, body)
	}
}

func TestEvents_Dispatch(t *testing.T) {
	env := newTestEnv(t, 20)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"open stream", `{"action":"open-stream","streamId":"c"}`, http.StatusOK, ""},
		{"unknown stream", `{"action":"open-stream","streamId":"nope"}`, http.StatusNotFound, "NOT_FOUND"},
		{"search", `{"action":"search","value":"stream"}`, http.StatusOK, ""},
		{"filter", `{"action":"filter","value":"new"}`, http.StatusOK, ""},
		{"bad filter", `{"action":"filter","value":"hot"}`, http.StatusBadRequest, "INVALID_EVENT"},
		{"page out of range", `{"action":"page","value":"9"}`, http.StatusBadRequest, "INVALID_EVENT"},
		{"refresh", `{"action":"refresh"}`, http.StatusOK, ""},
		{"unbound", `{"action":"dance"}`, http.StatusBadRequest, "UNKNOWN_ACTION"},
		{"missing action", `{}`, http.StatusBadRequest, "MISSING_FIELD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/events", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			if tt.wantCode != "" && errorCode(t, body) != tt.wantCode {
				t.Errorf("code = %s, want %s", errorCode(t, body), tt.wantCode)
			}
		})
	}
}

// The page script opens result.url after an open-stream event.
func TestEvents_OpenStreamReturnsResultURL(t *testing.T) {
	env := newTestEnv(t, 3)

	status, body := env.do(t, http.MethodPost, "/api/events", `{"action":"open-stream","streamId":"a"}`)
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	var resp struct {
		Action string `json:"action"`
		Result struct {
			Stream model.Stream `json:"stream"`
			URL    string       `json:"url"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Action != "open-stream" {
		t.Errorf("action = %q", resp.Action)
	}
	if resp.Result.URL != "https://pump.fun/coin/a" {
		t.Errorf("result.url = %q", resp.Result.URL)
	}
	if resp.Result.Stream.ID != "a" {
		t.Errorf("result.stream.id = %q", resp.Result.Stream.ID)
	}
}

func TestPage_ScriptReadsResultURL(t *testing.T) {
	env := newTestEnv(t, 1)

	status, body := env.do(t, http.MethodGet, "/", "")
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(string(body), "res.result && res.result.url") {
		t.Error("card click handler does not read result.url")
	}
}

func TestEvents_PageMovesSharedState(t *testing.T) {
	env := newTestEnv(t, 20)

	status, body := env.do(t, http.MethodPost, "/api/events", `{"action":"page","value":"2"}`)
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	if env.dash.View().Page != 2 {
		t.Errorf("page = %d, want 2", env.dash.View().Page)
	}
}

func TestPage_Index(t *testing.T) {
	env := newTestEnv(t, 3)

	req := httptest.NewRequest(http.MethodGet, "/?q=stream%20b", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	html := string(b)
	if !strings.Contains(html, `data-stream-id="b"`) {
		t.Error("matching card missing")
	}
	if strings.Contains(html, `data-stream-id="a"`) {
		t.Error("non-matching card rendered")
	}
	if env.dash.View().Search != "stream b" {
		t.Error("page query should update the shared search")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 3)

	status, _ := env.do(t, http.MethodGet, "/health/live", "")
	if status != http.StatusOK {
		t.Errorf("live = %d", status)
	}

	status, body := env.do(t, http.MethodGet, "/health/ready", "")
	if status != http.StatusOK {
		t.Errorf("ready = %d: %s", status, body)
	}

	env.fetcher.res = upstream.Result{Records: []model.RawRecord{upstream.Fallback()}, Fallback: true}
	env.refresher.RefreshNow(context.Background(), service.TriggerManual)

	status, body = env.do(t, http.MethodGet, "/health/ready", "")
	if status != http.StatusServiceUnavailable || !strings.Contains(string(body), `"fallback"`) {
		t.Errorf("ready after fallback = %d: %s", status, body)
	}
}

func TestCheckUpstream(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		last service.RefreshStatus
		want string
	}{
		{"pending", service.RefreshStatus{}, "pending"},
		{"fresh", service.RefreshStatus{Generation: 1, Outcome: "committed", FinishedAt: now}, "up"},
		{"fallback", service.RefreshStatus{Generation: 1, Outcome: "fallback", FinishedAt: now}, "fallback"},
		{"stale", service.RefreshStatus{Generation: 1, Outcome: "committed", FinishedAt: now.Add(-4 * time.Minute)}, "stale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkUpstream(tt.last, time.Minute, now)["status"]; got != tt.want {
				t.Errorf("status = %v, want %s", got, tt.want)
			}
		})
	}
}
