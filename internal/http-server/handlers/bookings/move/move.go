package move

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

type Mover interface {
	Move(ctx context.Context, sess *models.Session, fromID, toID, uid string) (*api.ClassResponse, error)
}

type Request struct {
	api.BookingMoveRequest
}

type Response struct {
	response.Response
	Class api.ClassResponse `json:"class,omitempty"`
}

func New(log *slog.Logger, mover Mover, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.move.New"

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

		if req.FromClassID == "" {
			log.Error("from_class_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from_class_id is required"))
			return
		}

		if req.ToClassID == "" {
			log.Error("to_class_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "to_class_id is required"))
			return
		}

		class, err := mover.Move(r.Context(), sess, req.FromClassID, req.ToClassID, req.UID)

		if errors.Is(err, response.ErrForbidden) {
			log.Error("forbidden")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "cannot move another user's booking"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrClassFull) {
			log.Error("destination class is full")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CLASS_FULL), "destination class is full"))
			return
		}

		if errors.Is(err, response.ErrAlreadyBooked) {
			log.Error("already booked in destination")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_BOOKED), "user is already booked into the destination class"))
			return
		}

		if errors.Is(err, response.ErrNotBooked) {
			log.Error("not booked in source")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_BOOKED), "user is not booked into the source class"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("conflict")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "source and destination are the same class"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to move booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to move booking"))
			return
		}

		log.Info("Booking moved", slog.Any("class", class))
		responseOK(w, r, class)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, class *api.ClassResponse) {
	render.JSON(w, r, Response{
		Class: *class,
	})
}
