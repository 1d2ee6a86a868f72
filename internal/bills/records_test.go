package bills

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-02":                time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		"2025-03-02T10:15:00-0700":  time.Date(2025, 3, 2, 17, 15, 0, 0, time.UTC),
		"2025-03-02T10:15:00+00:00": time.Date(2025, 3, 2, 10, 15, 0, 0, time.UTC),
		" 2025-03-02T10:15:00 ":     time.Date(2025, 3, 2, 10, 15, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseDate("March 2nd")
	require.ErrorIs(t, err, ErrBadDate)
}

func TestParseReference(t *testing.T) {
	ref, err := parseReference(`~{"identifier": "S 5", "legislative_session": "119"}`)
	require.NoError(t, err)
	assert.Equal(t, reference{Identifier: "S 5", LegislativeSession: "119"}, ref)

	_, err = parseReference(`{"classification": "upper"}`)
	require.ErrorIs(t, err, ErrBadReference)
	_, err = parseReference(`~{broken`)
	require.ErrorIs(t, err, ErrBadReference)
}

func TestSummarizeActions_TiesKeepFirstListed(t *testing.T) {
	span, err := summarizeActions([]datedAction{
		{Date: "2025-02-01", Description: "Referred to Committee"},
		{Date: "2025-01-15", Description: "Introduced"},
		{Date: "2025-02-01", Description: "Committee Hearing"},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *span.First)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *span.Latest)
	assert.Equal(t, "Referred to Committee", span.LatestDescription)

	_, err = summarizeActions([]datedAction{{Date: "soon"}})
	require.ErrorIs(t, err, ErrBadDate)
}

func TestJSONB_NullIsAbsent(t *testing.T) {
	assert.Nil(t, jsonb(nil))
	assert.Nil(t, jsonb([]byte(" null ")))
	assert.Equal(t, `[1]`, string(jsonb([]byte(`[1]`))))
}
