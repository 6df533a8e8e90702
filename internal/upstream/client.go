// Package upstream fetches raw stream records from the livestream API.
//
// The client never fails toward its caller: any transport, status or decode
// problem is reported through Result.Err and the records are replaced by a
// single "API unavailable" placeholder.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

const (
	// FallbackID identifies the placeholder record substituted on failure.
	FallbackID = "fallback-1"

	maxBodyBytes = 10 * 1024 * 1024
	userAgent    = "pumpwatch/1.0 (+https://github.com/mathieu-neron/pumpwatch)"
)

// Config describes the upstream endpoint.
type Config struct {
	BaseURL    string
	ResultPath string // dot-notation path to the record array, "" for a root array
	Limit      int
	Timeout    time.Duration
}

// Result is the outcome of one fetch. On failure Records holds the single
// fallback record; a successful fetch may return no records at all.
type Result struct {
	Records  []model.RawRecord
	Fallback bool
	Err      error
	Duration time.Duration
}

// Client issues the list request against the upstream API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a Client. A nil httpClient gets a client with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Fallback returns the placeholder record used when the API is unavailable.
func Fallback() model.RawRecord {
	return model.RawRecord{
		ID:          FallbackID,
		Name:        "API Unavailable",
		Description: "The stream API could not be reached. Data will reload on the next refresh.",
	}
}

// Fetch requests the top streams sorted by participant count.
func (c *Client) Fetch(ctx context.Context) Result {
	start := time.Now()
	records, err := c.fetch(ctx)
	res := Result{Records: records, Err: err, Duration: time.Since(start)}
	if err != nil {
		res.Records = []model.RawRecord{Fallback()}
		res.Fallback = true
	}
	return res
}

// RequestURL returns the list URL with its query parameters.
func (c *Client) RequestURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("upstream: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	q.Set("offset", "0")
	q.Set("sort_by", "num_participants")
	q.Set("sort_order", "DESC")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context) ([]model.RawRecord, error) {
	target, err := c.RequestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream: read body: %w", err)
	}

	return Decode(body, c.cfg.ResultPath)
}

// Decode extracts the record array from a response body. A root-level
// array is accepted regardless of path.
func Decode(body []byte, path string) ([]model.RawRecord, error) {
	items, err := walkPath(json.RawMessage(body), path)
	if err != nil {
		return nil, fmt.Errorf("upstream: walk path %q: %w", path, err)
	}

	records := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		var r model.RawRecord
		if err := json.Unmarshal(item, &r); err != nil {
			// Type mismatches leave the field at its zero value; the
			// normalizer fills defaults. Only non-objects are dropped.
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) || typeErr.Field == "" {
				continue
			}
		}
		records = append(records, r)
	}
	return records, nil
}

func walkPath(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	var current json.RawMessage = trimmed
	if trimmed[0] != '[' && path != "" {
		for _, part := range strings.Split(path, ".") {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(current, &obj); err != nil {
				return nil, fmt.Errorf("expected object at %q: %w", part, err)
			}
			next, ok := obj[part]
			if !ok {
				return nil, fmt.Errorf("key %q not found", part)
			}
			current = next
		}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(current, &arr); err != nil {
		return nil, fmt.Errorf("not an array: %w", err)
	}
	return arr, nil
}
