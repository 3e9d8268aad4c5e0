package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/internal/identity"
	"gym-service/internal/models"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, sess *models.Session, req *api.ProfileRequest) (*api.ProfileResponse, error)
}

type Request struct {
	api.ProfileRequest
}

type Response struct {
	response.Response
	Profile api.ProfileResponse `json:"profile,omitempty"`
}

func New(log *slog.Logger, updater ProfileUpdater, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profiles.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sess, err := idp.Session(r)
		if err != nil {
			log.Error("No session", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "no identity"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		req.UID = chi.URLParam(r, "uid")
		if req.UID == "" || req.Name == "" {
			log.Error("uid and name are required")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "uid and name are required"))
			return
		}

		profile, err := updater.UpdateProfile(r.Context(), sess, &req.ProfileRequest)

		if errors.Is(err, response.ErrForbidden) {
			log.Error("forbidden")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "cannot update another user's profile"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("name already taken")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "name already taken"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("profile not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		// propagation failures mean attendee copies may still show the old
		// photo. The profile write itself committed, so log loudly and
		// surface the failure for operational follow-up.
		if errors.Is(err, response.ErrPropagationFailed) {
			log.Error("Profile propagation failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "profile updated but propagation failed"))
			return
		}

		if err != nil {
			log.Error("Failed to update profile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update profile"))
			return
		}

		log.Info("Profile updated", slog.String("uid", profile.UID))
		render.JSON(w, r, Response{Profile: *profile})
	}
}
