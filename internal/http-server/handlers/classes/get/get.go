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

type ClassProvider interface {
	GetClass(ctx context.Context, id string) (*api.ClassResponse, error)
	ListClassesByDateRange(ctx context.Context, from, to string) ([]*api.ClassResponse, error)
	ListClassesByDayTime(ctx context.Context, day, startTime string) ([]*api.ClassResponse, error)
}

type Response struct {
	response.Response
	Class   *api.ClassResponse   `json:"class,omitempty"`
	Classes []*api.ClassResponse `json:"classes,omitempty"`
}

func New(log *slog.Logger, provider ClassProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.classes.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if id := chi.URLParam(r, "id"); id != "" {
			class, err := provider.GetClass(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("class not found", slog.String("id", id))
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get class", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get class"))
				return
			}

			render.JSON(w, r, Response{Class: class})
			return
		}

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		day := r.URL.Query().Get("day")
		startTime := r.URL.Query().Get("time")

		var classes []*api.ClassResponse
		var err error

		switch {
		case from != "" && to != "":
			classes, err = provider.ListClassesByDateRange(r.Context(), from, to)
		case day != "" && startTime != "":
			classes, err = provider.ListClassesByDayTime(r.Context(), day, startTime)
		default:
			log.Error("missing query filters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from/to or day/time query parameters are required"))
			return
		}

		if err != nil {
			log.Error("Failed to list classes", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list classes"))
			return
		}

		render.JSON(w, r, Response{Classes: classes})
	}
}
