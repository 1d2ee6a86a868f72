// Package bills ingests bills and their roll-call votes, from scraper output
// directories or from the Open States API, resolving every voter name to a
// stored person.
package bills

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/essentials"
	"github.com/EmpoweredVote/EV-Civics/internal/ocd"
)

var (
	// ErrBadDate means a required date could not be parsed. It aborts the
	// run rather than storing a bill with a guessed date.
	ErrBadDate = eris.New("bills: unparseable date")
	// ErrBadReference means a "~{json}" cross reference was malformed.
	ErrBadReference = eris.New("bills: malformed reference")
)

// recordOnly reports whether err condemns just the record being built, so
// the run can log it and move on.
func recordOnly(err error) bool {
	return !errors.Is(err, ErrBadDate)
}

// dateLayouts are the shapes scraped and served dates take.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Wrapf(ErrBadDate, "bills: %q", s)
}

// reference is the object behind a scraper's "~{json}" pseudo id.
type reference struct {
	Identifier         string `json:"identifier"`
	Classification     string `json:"classification"`
	Name               string `json:"name"`
	LegislativeSession string `json:"legislative_session"`
}

// parseReference decodes a "~{json}" pseudo id.
func parseReference(s string) (reference, error) {
	var ref reference
	body, ok := strings.CutPrefix(s, "~")
	if !ok {
		return ref, eris.Wrapf(ErrBadReference, "bills: %q has no ~ prefix", s)
	}
	if err := json.Unmarshal([]byte(body), &ref); err != nil {
		return ref, eris.Wrapf(ErrBadReference, "bills: %q: %v", s, err)
	}
	return ref, nil
}

// jsonb keeps a raw document for a jsonb column; absent and null documents
// are stored as NULL.
func jsonb(raw json.RawMessage) essentials.JSONB {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return essentials.JSONB(raw)
}

// datedAction is the part of an action the date summary reads.
type datedAction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// actionSpan is the first and latest action of a bill.
type actionSpan struct {
	First, Latest     *time.Time
	LatestDescription string
}

// summarizeActions finds the earliest and latest action. On equal dates the
// first one listed wins. Any unparseable date is an error.
func summarizeActions(actions []datedAction) (actionSpan, error) {
	var span actionSpan
	for _, a := range actions {
		t, err := parseDate(a.Date)
		if err != nil {
			return actionSpan{}, err
		}
		if span.First == nil || t.Before(*span.First) {
			span.First = &t
		}
		if span.Latest == nil || t.After(*span.Latest) {
			span.Latest = &t
			span.LatestDescription = a.Description
		}
	}
	return span, nil
}

// jurisdictionLevel labels bills of Congress "federal" and all others
// "state".
func jurisdictionLevel(jurisdictionAreaID string) string {
	if jurisdictionAreaID == ocd.DivisionPrefix {
		return "federal"
	}
	return "state"
}
