// Package openstates is a client for the Open States v3 API.
package openstates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public API host.
	BaseURL = "https://v3.openstates.org"

	DefaultRequestsPerMinute = 10
	DefaultRateLimitPause    = 65 * time.Second
)

var (
	// ErrRateLimited is returned once a request has been throttled more
	// times than Options.MaxRateLimitRetries allows.
	ErrRateLimited = eris.New("openstates: rate limited")
	// ErrBadResponse is a non-2xx answer that is not a rate limit.
	ErrBadResponse = eris.New("openstates: bad response")
)

type Options struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	// RateLimitPause is how long to wait after the API reports its limit
	// was exceeded before retrying the same request.
	RateLimitPause time.Duration
	// MaxRateLimitRetries of zero retries until ctx is done.
	MaxRateLimitRetries int
	Timeout             time.Duration
	// Sleep replaces the pause between rate-limited attempts. Tests set it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client serializes every request through one limiter, so all callers in a
// process share the upstream quota.
type Client struct {
	http       *resty.Client
	limiter    *rate.Limiter
	pause      time.Duration
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if opts.RateLimitPause <= 0 {
		opts.RateLimitPause = DefaultRateLimitPause
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("X-API-KEY", opts.APIKey)

	every := time.Minute / time.Duration(opts.RequestsPerMinute)
	return &Client{
		http:       hc,
		limiter:    rate.NewLimiter(rate.Every(every), 1),
		pause:      opts.RateLimitPause,
		maxRetries: opts.MaxRateLimitRetries,
		sleep:      opts.Sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// rateLimited recognizes both the 429 status and the documented
// {"detail": "exceeded limit of 10/min: 11"} body.
func rateLimited(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return false
	}
	return strings.Contains(string(eb.Detail), "exceeded limit")
}

// get performs one logical request, pausing and retrying the identical
// request while the API reports its limit.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "openstates: wait for limiter")
		}

		start := time.Now()
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParamsFromValues(query).
			Get(path)
		if err != nil {
			return eris.Wrapf(err, "openstates: GET %s", path)
		}
		body := resp.Body()

		if rateLimited(resp.StatusCode(), body) {
			if c.maxRetries > 0 && attempt >= c.maxRetries {
				return eris.Wrapf(ErrRateLimited, "openstates: GET %s after %d attempts", path, attempt+1)
			}
			zap.L().Info("rate limit hit, pausing",
				zap.String("component", "openstates"),
				zap.String("path", path),
				zap.Duration("pause", c.pause))
			if err := c.sleep(ctx, c.pause); err != nil {
				return eris.Wrap(err, "openstates: rate limit pause")
			}
			continue
		}

		zap.L().Debug("request done",
			zap.String("component", "openstates"),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("took", time.Since(start)))

		if resp.IsError() {
			return eris.Wrapf(ErrBadResponse, "openstates: GET %s: %s: %s", path, resp.Status(), truncate(body, 200))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrapf(err, "openstates: decode %s", path)
		}
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// PeopleGeo returns the legislators whose districts contain the point.
func (c *Client) PeopleGeo(ctx context.Context, lat, lng float64) ([]GeoPerson, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var res peopleGeoResponse
	if err := c.get(ctx, "/people.geo", q, &res); err != nil {
		return nil, err
	}
	if res.Results == nil {
		return nil, eris.Wrapf(ErrBadResponse, "openstates: people.geo (%f, %f) without results", lat, lng)
	}
	return res.Results, nil
}

var billIncludes = []string{
	"sponsorships", "abstracts", "other_titles", "other_identifiers", "actions",
	"sources", "documents", "versions", "votes", "related_bills",
}

// Bills fetches one page of a jurisdiction's bills, most recently updated
// first, with actions and votes included.
func (c *Client) Bills(ctx context.Context, jurisdiction string, page, perPage int) (*BillsPage, error) {
	q := url.Values{}
	q.Set("jurisdiction", jurisdiction)
	q.Set("sort", "updated_desc")
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	for _, inc := range billIncludes {
		q.Add("include", inc)
	}

	var res BillsPage
	if err := c.get(ctx, "/bills", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Jurisdiction fetches a jurisdiction with its latest scrape runs.
func (c *Client) Jurisdiction(ctx context.Context, id string) (*Jurisdiction, error) {
	q := url.Values{}
	q.Add("include", "latest_runs")

	var res Jurisdiction
	if err := c.get(ctx, "/jurisdictions/"+id, q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
