package service

import (
	"context"
	"testing"
	"time"

	"gym-service/internal/models"
	"gym-service/pkg/response"

	"github.com/stretchr/testify/require"
)

func TestSetAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("flips reservado to asistido and back", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, attendee("A"), attendee("B")))
		svc := NewService(store, &lockerStub{})

		resp, err := svc.SetAttendance(ctx, "c1", "A", true)
		require.NoError(t, err)
		require.Equal(t, string(models.ATTENDEE_ATTENDED), resp.Attendees[0].Status)
		require.Equal(t, string(models.ATTENDEE_RESERVED), resp.Attendees[1].Status)

		resp, err = svc.SetAttendance(ctx, "c1", "A", false)
		require.NoError(t, err)
		require.Equal(t, string(models.ATTENDEE_RESERVED), resp.Attendees[0].Status)
	})

	t.Run("unknown attendee", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, attendee("A")))
		svc := NewService(store, &lockerStub{})

		_, err := svc.SetAttendance(ctx, "c1", "Z", true)
		require.ErrorIs(t, err, response.ErrNotBooked)
	})

	t.Run("unknown class", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		_, err := svc.SetAttendance(ctx, "nope", "A", true)
		require.ErrorIs(t, err, response.ErrNotFound)
	})
}

func TestTopAttendees(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	attended := func(uid string) models.Attendee {
		return models.Attendee{UID: uid, Name: "User " + uid, Status: models.ATTENDEE_ATTENDED}
	}

	past := func(id, date string, attendees ...models.Attendee) *models.ClassOccurrence {
		c := testClass(id, 10, attendees...)
		c.Date = date
		return c
	}

	t.Run("ranks by attended count descending", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(past("c1", "2026-03-02", attended("A"), attended("B")))
		store.seedClass(past("c2", "2026-03-03", attended("A"), attendee("B")))
		store.seedClass(past("c3", "2026-03-04", attended("A"), attended("C")))
		svc := NewService(store, &lockerStub{})

		top, err := svc.TopAttendees(ctx, "2026-03-01", "2026-03-08", now)
		require.NoError(t, err)
		require.Len(t, top, 3)
		require.Equal(t, "A", top[0].UID)
		require.Equal(t, 3, top[0].Attended)
		// ties break on uid for a stable order
		require.Equal(t, "B", top[1].UID)
		require.Equal(t, 1, top[1].Attended)
		require.Equal(t, "C", top[2].UID)
	})

	t.Run("skips classes that have not started yet", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(past("c1", "2026-03-02", attended("A")))
		future := past("c2", "2026-03-20", attended("A"))
		store.seedClass(future)
		svc := NewService(store, &lockerStub{})

		top, err := svc.TopAttendees(ctx, "2026-03-01", "2026-03-31", now)
		require.NoError(t, err)
		require.Len(t, top, 1)
		require.Equal(t, 1, top[0].Attended)
	})

	t.Run("respects the date range", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(past("c1", "2026-02-02", attended("A")))
		svc := NewService(store, &lockerStub{})

		top, err := svc.TopAttendees(ctx, "2026-03-01", "2026-03-31", now)
		require.NoError(t, err)
		require.Empty(t, top)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		_, err := svc.TopAttendees(ctx, "03/01/2026", "2026-03-31", now)
		require.Error(t, err)
	})
}

func TestClassEnded(t *testing.T) {
	now := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)

	c := testClass("c1", 5)
	c.Date = "2026-03-02"
	c.Time = "10:00"
	c.Duration = 60
	require.True(t, c.Ended(now))

	c.Time = "11:00"
	require.False(t, c.Ended(now), "class still running")

	c.Time = "13:00"
	require.False(t, c.Ended(now))
}
