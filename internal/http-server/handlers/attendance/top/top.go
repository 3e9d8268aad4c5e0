package top

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gym-service/api"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Ranker interface {
	TopAttendees(ctx context.Context, from, to string, now time.Time) ([]*api.TopAttendee, error)
}

type Response struct {
	response.Response
	Top []*api.TopAttendee `json:"top,omitempty"`
}

func New(log *slog.Logger, ranker Ranker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.top.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		if from == "" || to == "" {
			log.Error("from and to are required")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from and to query parameters are required"))
			return
		}

		top, err := ranker.TopAttendees(r.Context(), from, to, time.Now())
		if err != nil {
			log.Error("Failed to rank attendees", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to rank attendees"))
			return
		}

		render.JSON(w, r, Response{Top: top})
	}
}
