// Package render turns dashboard views into HTML.
package render

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mathieu-neron/pumpwatch/internal/events"
	"github.com/mathieu-neron/pumpwatch/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the dashboard page.
type Renderer struct {
	tmpl            *template.Template
	refreshInterval time.Duration
}

type pageData struct {
	View            model.View
	Filters         []model.Filter
	RefreshInterval time.Duration
}

// New parses the embedded templates.
func New(refreshInterval time.Duration) (*Renderer, error) {
	policy := bluemonday.StrictPolicy()

	funcs := template.FuncMap{
		"clean":       func(s string) string { return StripMarkup(policy, s) },
		"formatCount": FormatCount,
		"formatUSD":   FormatUSD,
		"timeAgo":     TimeAgo,
		"cardAttrs":   events.CardAttrs,
		"attrs":       func(a string, v any) template.HTMLAttr { return events.Attrs(events.Action(a), fmt.Sprint(v)) },
		"isLive":      func(s model.Stream) bool { return s.IsLive() },
		"disabledIf":  func(b bool) template.HTMLAttr {
			if b {
				return "disabled"
			}
			return ""
		},
	}

	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, refreshInterval: refreshInterval}, nil
}

// Render writes the full dashboard page for v.
func (r *Renderer) Render(w io.Writer, v model.View) error {
	data := pageData{
		View:            v,
		Filters:         model.Filters,
		RefreshInterval: r.refreshInterval,
	}
	if err := r.tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		return fmt.Errorf("render: execute: %w", err)
	}
	return nil
}

// FormatCount abbreviates large counts: 1260 → "1.3K", 2100000 → "2.1M".
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatUSD renders a dollar amount with thousands separators and no cents.
func FormatUSD(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// TimeAgo renders an epoch-millisecond timestamp relative to now. Nil
// renders as an empty string.
func TimeAgo(ms *int64) string {
	if ms == nil {
		return ""
	}
	return humanize.Time(time.UnixMilli(*ms))
}

// StripMarkup removes any HTML from upstream text and returns plain text,
// leaving escaping to the template.
func StripMarkup(p *bluemonday.Policy, s string) string {
	return html.UnescapeString(p.Sanitize(s))
}
