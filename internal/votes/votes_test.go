package votes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func senate() []PersonStub {
	return []PersonStub{
		NewPersonStub("ocd-person/bennet", "Michael F. Bennet", "Michael", "Bennet", "Senate", "ocd-division/country:us/state:co"),
		NewPersonStub("ocd-person/hickenlooper", "John Hickenlooper", "John", "Hickenlooper", "Senate", "ocd-division/country:us/state:co"),
		NewPersonStub("ocd-person/bennett-ut", "Robert Bennett", "Robert", "Bennett", "Senate", "ocd-division/country:us/state:ut"),
		NewPersonStub("ocd-person/crow", "Jason Crow", "Jason", "Crow", "House", "ocd-division/country:us/state:co/cd:6"),
	}
}

func TestStateHint(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"Bennet (D-CO)", "CO", true},
		{"Bennet (CO)", "CO", true},
		{"Norton (D-DC)", "DC", true},
		{"Bennet", "", false},
		{"Bennet (Colorado)", "", false},
	}
	for _, tt := range tests {
		got, ok := StateHint(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStandardize(t *testing.T) {
	assert.Equal(t, "Bennet", Standardize("Bennet (D-CO)"))
	assert.Equal(t, "Lujan", Standardize("Luján (D-NM)"))
	assert.Equal(t, "Velazquez", Standardize("Velázquez"))
	assert.Equal(t, "Smith", Standardize("Smith (Jr.) (R-TX)"))
	assert.Equal(t, "Van Hollen", Standardize("Van (Chris) Hollen (D-MD)"))
}

func TestNewPersonStub_State(t *testing.T) {
	s := NewPersonStub("p", "n", "", "", "House", "ocd-division/country:us/district:dc/ward:3")
	assert.Equal(t, "DC", s.State)
}

func TestResolveVoterID_LastNameWithStateHint(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	id, ok := r.ResolveVoterID("Bennet (D-CO)", "upper", senate())
	require.True(t, ok)
	assert.Equal(t, "ocd-person/bennet", id)
}

func TestResolveVoterID_FullNameBeatsLastName(t *testing.T) {
	pool := []PersonStub{
		{ID: "last-hit", Name: "Jordan Q. Smith", FirstName: "Jordan", LastName: "Jordan Smith", Chamber: "House", State: "OH"},
		{ID: "full-hit", Name: "Jordan Smith", FirstName: "Jordan", LastName: "Smith", Chamber: "House", State: "OH"},
	}
	id, ok := NewResolver(0).ResolveVoterID("Jordan Smith (R-OH)", "lower", pool)
	require.True(t, ok)
	assert.Equal(t, "full-hit", id)
}

func TestResolveVoterID_FuzzyMisspelling(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	id, ok := r.ResolveVoterID("John Hickenloper (D-CO)", "upper", senate())
	require.True(t, ok)
	assert.Equal(t, "ocd-person/hickenlooper", id)
}

func TestResolveVoterID_BelowThreshold(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	_, ok := r.ResolveVoterID("Gardner (R-CO)", "upper", senate())
	assert.False(t, ok)
}

func TestResolveVoterID_SurnameOnlyTypo(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	tests := []struct {
		voterName, want string
	}{
		{"Bennett (D-CO)", "ocd-person/bennet"},
		{"Hickenloper (D-CO)", "ocd-person/hickenlooper"},
	}
	for _, tt := range tests {
		id, ok := r.ResolveVoterID(tt.voterName, "upper", senate())
		require.True(t, ok, tt.voterName)
		assert.Equal(t, tt.want, id, tt.voterName)
	}
}

func TestResolveVoterID_LastFirstOrder(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	id, ok := r.ResolveVoterID("Bennet, Michael (D-CO)", "upper", senate())
	require.True(t, ok)
	assert.Equal(t, "ocd-person/bennet", id)
}

func TestResolveVoterID_StateFilterAvoidsNearNames(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	id, ok := r.ResolveVoterID("Bennett (R-UT)", "upper", senate())
	require.True(t, ok)
	assert.Equal(t, "ocd-person/bennett-ut", id)
}

func TestResolveVoterID_NoStateHintStillFiltersChamber(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	id, ok := r.ResolveVoterID("Crow", "lower", senate())
	require.True(t, ok)
	assert.Equal(t, "ocd-person/crow", id)

	_, ok = r.ResolveVoterID("Crow", "upper", senate())
	assert.False(t, ok)
}

func TestResolveVoterID_EmptyFilteredPoolNeverFallsBack(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	_, ok := r.ResolveVoterID("Bennet (D-WY)", "upper", senate())
	assert.False(t, ok)
}

func TestReplaceVoterIDs(t *testing.T) {
	votes := []Vote{
		{Option: "yes", VoterName: "Bennet (D-CO)", VoterID: "~placeholder-1"},
		{Option: "no", VoterName: "Nobody (I-CO)", VoterID: "~placeholder-2"},
	}
	n := NewResolver(DefaultThreshold).ReplaceVoterIDs("ocd-vote-event/x", "upper", votes, senate())

	assert.Equal(t, 1, n)
	assert.Equal(t, "ocd-person/bennet", votes[0].VoterID)
	assert.Equal(t, "~placeholder-2", votes[1].VoterID)
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 100, Score("bennet", "bennet"), 0.001)
	assert.Greater(t, Score("john hickenloper", "john hickenlooper"), 80.0)
	assert.Less(t, Score("gardner", "john hickenlooper"), 80.0)

	// Surname-only and reordered names align against the full name.
	assert.GreaterOrEqual(t, Score("bennett", "michael bennet"), 80.0)
	assert.GreaterOrEqual(t, Score("bennet, michael", "michael f. bennet"), 80.0)
	assert.InDelta(t, 0, Score("", "bennet"), 0.001)
}
