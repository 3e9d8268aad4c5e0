package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ProfileCreator interface {
	CreateProfile(ctx context.Context, req *api.ProfileRequest) (*api.ProfileResponse, error)
}

type Request struct {
	api.ProfileRequest
}

type Response struct {
	response.Response
	Profile api.ProfileResponse `json:"profile,omitempty"`
}

func New(log *slog.Logger, creator ProfileCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profiles.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.UID == "" || req.Name == "" {
			log.Error("uid and name are required")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "uid and name are required"))
			return
		}

		profile, err := creator.CreateProfile(r.Context(), &req.ProfileRequest)

		if errors.Is(err, response.ErrConflict) {
			log.Error("profile conflict")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "uid or name already taken"))
			return
		}

		if err != nil {
			log.Error("Failed to create profile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create profile"))
			return
		}

		log.Info("Profile created", slog.String("uid", profile.UID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Profile: *profile})
	}
}
