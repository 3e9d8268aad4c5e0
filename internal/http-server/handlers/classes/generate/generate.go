package generate

import (
	"context"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/internal/identity"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type GridMaterializer interface {
	MaterializeWeek(ctx context.Context, startDate string, slots []api.SlotTemplate) ([]string, error)
}

type Request struct {
	api.GenerateClassesRequest
}

type Response struct {
	response.Response
	api.GenerateClassesResponse
}

func New(log *slog.Logger, materializer GridMaterializer, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.classes.generate.New"

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

		if req.StartDate == "" {
			log.Error("start_date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "start_date is required"))
			return
		}

		if len(req.Slots) == 0 {
			log.Error("slots is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "slots is required"))
			return
		}

		created, err := materializer.MaterializeWeek(r.Context(), req.StartDate, req.Slots)
		if err != nil {
			log.Error("Failed to materialize week", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to generate classes"))
			return
		}

		log.Info("Week materialized", slog.Int("created", len(created)))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			GenerateClassesResponse: api.GenerateClassesResponse{
				Created: len(created),
				IDs:     created,
			},
		})
	}
}
