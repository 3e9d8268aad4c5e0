package service

import (
	"context"
	"testing"

	"gym-service/internal/models"
	"gym-service/pkg/response"

	"github.com/stretchr/testify/require"
)

func profile(uid, name, photo string) *models.UserProfile {
	return &models.UserProfile{UID: uid, Name: name, PhotoURL: photo}
}

func TestPropagatePhotoChange(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites every stale copy, leaves everyone else alone", func(t *testing.T) {
		store := newMemStore()
		u := models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1", Status: models.ATTENDEE_RESERVED}
		other := models.Attendee{UID: "V", Name: "Vic", PhotoURL: "pv", Status: models.ATTENDEE_ATTENDED}
		store.seedClass(testClass("c1", 5, u, other))
		store.seedClass(testClass("c2", 5, u))
		store.seedClass(testClass("c3", 5, other))
		svc := NewService(store, &lockerStub{})

		updated, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", "p1"), profile("U", "Uma", "p2"))
		require.NoError(t, err)
		require.Equal(t, 2, updated)

		for _, id := range []string{"c1", "c2"} {
			for _, a := range store.class(id).Attendees {
				if a.UID == "U" {
					require.Equal(t, "p2", a.PhotoURL, "class %s", id)
					require.Equal(t, models.ATTENDEE_RESERVED, a.Status, "status must not change")
				}
			}
		}

		// untouched bystanders
		require.Equal(t, "pv", store.class("c1").Attendees[1].PhotoURL)
		require.Equal(t, models.ATTENDEE_ATTENDED, store.class("c1").Attendees[1].Status)
		require.Equal(t, "pv", store.class("c3").Attendees[0].PhotoURL)
	})

	t.Run("catches snapshots with no photo", func(t *testing.T) {
		store := newMemStore()
		u := models.Attendee{UID: "U", Name: "Uma", Status: models.ATTENDEE_RESERVED}
		store.seedClass(testClass("c1", 5, u))
		svc := NewService(store, &lockerStub{})

		updated, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", ""), profile("U", "Uma", "p2"))
		require.NoError(t, err)
		require.Equal(t, 1, updated)
		require.Equal(t, "p2", store.class("c1").Attendees[0].PhotoURL)
	})

	t.Run("no-op when the photo did not change", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1"}))
		svc := NewService(store, &lockerStub{})

		updated, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", "p1"), profile("U", "Uma", "p1"))
		require.NoError(t, err)
		require.Zero(t, updated)
	})

	t.Run("zero matching documents is a success", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		updated, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", "p1"), profile("U", "Uma", "p2"))
		require.NoError(t, err)
		require.Zero(t, updated)
	})

	t.Run("re-delivery converges to the same state", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1"}))
		store.seedClass(testClass("c2", 5, models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1"}))
		svc := NewService(store, &lockerStub{})

		before, after := profile("U", "Uma", "p1"), profile("U", "Uma", "p2")

		updated, err := svc.PropagatePhotoChange(ctx, before, after)
		require.NoError(t, err)
		require.Equal(t, 2, updated)

		// same event delivered again
		updated, err = svc.PropagatePhotoChange(ctx, before, after)
		require.NoError(t, err)
		require.Zero(t, updated)

		for _, id := range []string{"c1", "c2"} {
			require.Equal(t, "p2", store.class(id).Attendees[0].PhotoURL)
		}
	})

	t.Run("commit path failure surfaces as propagation failure", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1"}))
		store.failUpdateFor = "c1"
		svc := NewService(store, &lockerStub{})

		_, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", "p1"), profile("U", "Uma", "p2"))
		require.ErrorIs(t, err, response.ErrPropagationFailed)
		require.Equal(t, "p1", store.class("c1").Attendees[0].PhotoURL)
	})

	t.Run("begin tx failure surfaces as propagation failure", func(t *testing.T) {
		store := newMemStore()
		store.seedClass(testClass("c1", 5, models.Attendee{UID: "U", Name: "Uma", PhotoURL: "p1"}))
		store.beginErr = errInjected
		svc := NewService(store, &lockerStub{})

		_, err := svc.PropagatePhotoChange(ctx, profile("U", "Uma", "p1"), profile("U", "Uma", "p2"))
		require.ErrorIs(t, err, response.ErrPropagationFailed)
	})
}
