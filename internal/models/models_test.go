package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The json field names are the persisted schema and must survive a
// round-trip unchanged.
func TestClassOccurrenceJSON(t *testing.T) {
	c := ClassOccurrence{
		ID:       "lunes-0930",
		Name:     "CrossFit",
		Day:      "lunes",
		Time:     "09:30",
		Date:     "2026-03-02",
		Duration: 60,
		Capacity: 12,
		Attendees: []Attendee{
			{UID: "u1", Name: "Uma", PhotoURL: "p1", Status: ATTENDEE_RESERVED},
			{UID: "u2", Name: "Vic", Status: ATTENDEE_ATTENDED},
		},
	}

	b, err := json.Marshal(c)
	require.NoError(t, err)

	s := string(b)
	for _, field := range []string{`"attendees"`, `"capacity"`, `"date"`, `"time"`, `"status"`, `"uid"`, `"photoURL"`} {
		require.Contains(t, s, field)
	}
	require.Contains(t, s, `"reservado"`)
	require.Contains(t, s, `"asistido"`)
	// absent photo is omitted, not serialized empty
	require.NotContains(t, s, `"photoURL":""`)

	var back ClassOccurrence
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, c, back)
}

func TestAttendeeEqual(t *testing.T) {
	a := Attendee{UID: "u1", Name: "Uma", PhotoURL: "p1", Status: ATTENDEE_RESERVED}

	require.True(t, a.Equal(a))
	b := a
	b.Status = ATTENDEE_ATTENDED
	require.False(t, a.Equal(b))
	b = a
	b.PhotoURL = "p2"
	require.False(t, a.Equal(b))

	require.True(t, a.MatchesSnapshot("u1", "Uma", "p1"))
	require.False(t, a.MatchesSnapshot("u1", "Uma", ""))
	require.False(t, a.MatchesSnapshot("u1", "Other", "p1"))
}

func TestFindAttendee(t *testing.T) {
	c := ClassOccurrence{Attendees: []Attendee{{UID: "a"}, {UID: "b"}}}

	idx, ok := c.FindAttendee("b")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = c.FindAttendee("z")
	require.False(t, ok)
}

func TestSessionCanActFor(t *testing.T) {
	var nilSess *Session
	require.False(t, nilSess.CanActFor("u1"))

	self := &Session{UID: "u1"}
	require.True(t, self.CanActFor("u1"))
	require.False(t, self.CanActFor("u2"))

	admin := &Session{UID: "a", Admin: true}
	require.True(t, admin.CanActFor("u2"))
}

func TestEnded(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	c := ClassOccurrence{Date: "2026-03-02", Time: "10:00", Duration: 60}
	require.True(t, c.Ended(now))

	c.Time = "11:30"
	require.False(t, c.Ended(now))

	c.Date = "not-a-date"
	require.False(t, c.Ended(now), "malformed dates never count as ended")
}
