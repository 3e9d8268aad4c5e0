package run

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
	"github.com/go-chi/render"
)

type Propagator interface {
	PropagatePhotoChange(ctx context.Context, before, after *models.UserProfile) (int, error)
}

type Request struct {
	api.PropagationRequest
}

type Response struct {
	response.Response
	api.PropagationResponse
}

// New is the redelivery entry point for profile-update events. The
// propagation job is idempotent, so the triggering infrastructure may call
// this any number of times with the same before/after snapshots.
func New(log *slog.Logger, propagator Propagator, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.propagation.run.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sess, err := idp.Session(r)
		if err != nil || !sess.Admin {
			log.Error("admin required")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "admin required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.Before.UID == "" || req.Before.UID != req.After.UID {
			log.Error("snapshots must carry the same uid")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "before and after snapshots must carry the same uid"))
			return
		}

		before := &models.UserProfile{UID: req.Before.UID, Name: req.Before.Name, PhotoURL: req.Before.PhotoURL}
		after := &models.UserProfile{UID: req.After.UID, Name: req.After.Name, PhotoURL: req.After.PhotoURL}

		updated, err := propagator.PropagatePhotoChange(r.Context(), before, after)

		if errors.Is(err, response.ErrPropagationFailed) {
			log.Error("Propagation failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "propagation failed"))
			return
		}

		if err != nil {
			log.Error("Failed to run propagation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to run propagation"))
			return
		}

		log.Info("Propagation complete", slog.Int("updated", updated))
		render.JSON(w, r, Response{
			PropagationResponse: api.PropagationResponse{Updated: updated},
		})
	}
}
