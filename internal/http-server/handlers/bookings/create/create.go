package create

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

type Booker interface {
	Book(ctx context.Context, sess *models.Session, classID string, attendee models.Attendee) (*api.ClassResponse, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Class api.ClassResponse `json:"class,omitempty"`
}

func New(log *slog.Logger, booker Booker, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if req.ClassID == "" {
			log.Error("class_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class_id is required"))
			return
		}

		attendee := models.Attendee{
			UID:      req.UID,
			Name:     req.Name,
			PhotoURL: req.PhotoURL,
		}

		class, err := booker.Book(r.Context(), sess, req.ClassID, attendee)

		if errors.Is(err, response.ErrForbidden) {
			log.Error("forbidden")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "cannot book for another user"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrClassFull) {
			log.Error("class is full")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CLASS_FULL), "class is full"))
			return
		}

		if errors.Is(err, response.ErrAlreadyBooked) {
			log.Error("already booked")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_BOOKED), "user is already booked into this class"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.Any("class", class))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, class)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, class *api.ClassResponse) {
	render.JSON(w, r, Response{
		Class: *class,
	})
}
