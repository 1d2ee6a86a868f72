package openstates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc, pauses *[]time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		RequestsPerMinute: 600000,
		Sleep: func(_ context.Context, d time.Duration) error {
			if pauses != nil {
				*pauses = append(*pauses, d)
			}
			return nil
		},
	})
}

func TestPeopleGeo(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people.geo", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "39.7392", r.URL.Query().Get("lat"))
		assert.Equal(t, "-104.9903", r.URL.Query().Get("lng"))
		_, _ = w.Write([]byte(`{"results":[{"id":"ocd-person/1","name":"Jane Doe",
			"current_role":{"title":"Senator","org_classification":"upper","district":"7"},
			"jurisdiction":{"id":"ocd-jurisdiction/country:us/state:co/government","classification":"state"}}]}`))
	}, nil)

	people, err := c.PeopleGeo(context.Background(), 39.7392, -104.9903)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "ocd-person/1", people[0].ID)
	assert.Equal(t, "upper", people[0].CurrentRole.OrgClassification)
	assert.Equal(t, "state", people[0].Jurisdiction.Classification)
}

func TestPeopleGeo_PausesAndRetriesOnRateLimit(t *testing.T) {
	var calls int32
	var pauses []time.Duration
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			_, _ = w.Write([]byte(`{"detail":"exceeded limit of 10/min: 11"}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, &pauses)

	people, err := c.PeopleGeo(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, people)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultRateLimitPause, DefaultRateLimitPause}, pauses)
}

func TestPeopleGeo_TooManyRequestsStatus(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, nil)

	_, err := c.PeopleGeo(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPeopleGeo_GivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := NewClient(Options{
		BaseURL:             srv.URL,
		RequestsPerMinute:   600000,
		MaxRateLimitRetries: 2,
		Sleep:               func(context.Context, time.Duration) error { return nil },
	})

	_, err := c.PeopleGeo(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPeopleGeo_OtherErrorsAreFatal(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"invalid lat"}`))
	}, nil)

	_, err := c.PeopleGeo(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrBadResponse)

	c = testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}, nil)
	_, err = c.PeopleGeo(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestBills(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/bills", r.URL.Path)
		assert.Equal(t, "ocd-jurisdiction/country:us/state:co/government", q.Get("jurisdiction"))
		assert.Equal(t, "updated_desc", q.Get("sort"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Contains(t, q["include"], "votes")
		_, _ = w.Write([]byte(`{"results":[{"id":"ocd-bill/x","identifier":"HB 1001","session":"2025A",
			"updated_at":"2025-03-01T10:00:00.123456+00:00"}],
			"pagination":{"per_page":20,"page":2,"max_page":3,"total_items":41}}`))
	}, nil)

	page, err := c.Bills(context.Background(), "ocd-jurisdiction/country:us/state:co/government", 2, 20)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 3, page.Pagination.MaxPage)

	updated, err := ParseTime(page.Results[0].UpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC), updated)
}

func TestJurisdiction(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jurisdictions/ocd-jurisdiction/country:us/state:co/government", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"ocd-jurisdiction/country:us/state:co/government","name":"Colorado",
			"latest_runs":[{"end_time":"2025-01-01T00:00:00+00:00"},{"end_time":"2025-02-01T06:30:00.5+00:00"}]}`))
	}, nil)

	j, err := c.Jurisdiction(context.Background(), "ocd-jurisdiction/country:us/state:co/government")
	require.NoError(t, err)
	end, ok, err := j.LatestRunEnd()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 1, 6, 30, 0, 500000000, time.UTC), end)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2024-10-20", "2024-10-20T00:00:00Z", "2024-10-20T00:00:00.000000", "2024-10-20 00:00:00"} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC), got, s)
	}
	_, err := ParseTime("October 20")
	assert.Error(t, err)
}
