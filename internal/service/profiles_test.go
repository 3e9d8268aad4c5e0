package service

import (
	"context"
	"testing"

	"gym-service/api"
	"gym-service/internal/models"
	"gym-service/pkg/response"

	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and stamps createdAt", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		resp, err := svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u1", Name: "Uma", Email: "uma@example.com"})
		require.NoError(t, err)
		require.Equal(t, "u1", resp.UID)
		require.False(t, resp.CreatedAt.IsZero())
	})

	t.Run("name must be unique across profiles", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		_, err := svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u1", Name: "Uma"})
		require.NoError(t, err)

		_, err = svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u2", Name: "Uma"})
		require.ErrorIs(t, err, response.ErrConflict)
	})

	t.Run("uid and name are required", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		_, err := svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u1"})
		require.Error(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*Service, *memStore) {
		t.Helper()
		store := newMemStore()
		svc := NewService(store, &lockerStub{})
		_, err := svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u1", Name: "Uma", PhotoURL: "p1"})
		require.NoError(t, err)
		return svc, store
	}

	t.Run("photo change propagates into attendee copies", func(t *testing.T) {
		svc, store := seed(t)
		store.seedClass(testClass("c1", 5, models.Attendee{
			UID: "u1", Name: "Uma", PhotoURL: "p1", Status: models.ATTENDEE_RESERVED,
		}))

		resp, err := svc.UpdateProfile(ctx, userSession("u1"), &api.ProfileRequest{
			UID: "u1", Name: "Uma", PhotoURL: "p2",
		})
		require.NoError(t, err)
		require.Equal(t, "p2", resp.PhotoURL)
		require.Equal(t, "p2", store.class("c1").Attendees[0].PhotoURL)
	})

	t.Run("propagation failure is surfaced, not swallowed", func(t *testing.T) {
		svc, store := seed(t)
		store.seedClass(testClass("c1", 5, models.Attendee{
			UID: "u1", Name: "Uma", PhotoURL: "p1", Status: models.ATTENDEE_RESERVED,
		}))
		store.failUpdateFor = "c1"

		_, err := svc.UpdateProfile(ctx, userSession("u1"), &api.ProfileRequest{
			UID: "u1", Name: "Uma", PhotoURL: "p2",
		})
		require.ErrorIs(t, err, response.ErrPropagationFailed)
	})

	t.Run("only self or admin may update", func(t *testing.T) {
		svc, _ := seed(t)

		_, err := svc.UpdateProfile(ctx, userSession("u2"), &api.ProfileRequest{UID: "u1", Name: "Uma"})
		require.ErrorIs(t, err, response.ErrForbidden)

		_, err = svc.UpdateProfile(ctx, adminSession(), &api.ProfileRequest{UID: "u1", Name: "Uma B"})
		require.NoError(t, err)
	})

	t.Run("renaming onto a taken name conflicts", func(t *testing.T) {
		svc, _ := seed(t)
		_, err := svc.CreateProfile(ctx, &api.ProfileRequest{UID: "u2", Name: "Vic"})
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, userSession("u2"), &api.ProfileRequest{UID: "u2", Name: "Uma"})
		require.ErrorIs(t, err, response.ErrConflict)
	})

	t.Run("unknown profile", func(t *testing.T) {
		svc := NewService(newMemStore(), &lockerStub{})

		_, err := svc.UpdateProfile(ctx, userSession("nope"), &api.ProfileRequest{UID: "nope", Name: "X"})
		require.ErrorIs(t, err, response.ErrNotFound)
	})
}
