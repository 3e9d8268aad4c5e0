package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ProfileProvider interface {
	GetProfile(ctx context.Context, uid string) (*api.ProfileResponse, error)
}

type Response struct {
	response.Response
	Profile api.ProfileResponse `json:"profile,omitempty"`
}

func New(log *slog.Logger, provider ProfileProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profiles.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		uid := chi.URLParam(r, "uid")
		if uid == "" {
			log.Error("uid is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "uid is required"))
			return
		}

		profile, err := provider.GetProfile(r.Context(), uid)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("profile not found", slog.String("uid", uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get profile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get profile"))
			return
		}

		render.JSON(w, r, Response{Profile: *profile})
	}
}
