package set

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"gym-service/api"
	"gym-service/internal/identity"
	"gym-service/internal/models"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AttendanceSetter interface {
	GetClassRecord(ctx context.Context, id string) (*models.ClassOccurrence, error)
	SetAttendance(ctx context.Context, classID, uid string, attended bool) (*api.ClassResponse, error)
}

type Request struct {
	api.AttendanceSetRequest
}

type Response struct {
	response.Response
	Class api.ClassResponse `json:"class,omitempty"`
}

// New builds the attendance endpoint. This is the authorization boundary for
// status flips: only an admin, and only once the class's scheduled end time
// has passed.
func New(log *slog.Logger, setter AttendanceSetter, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.set.New"

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

		if req.ClassID == "" || req.UID == "" {
			log.Error("class_id and uid are required")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "class_id and uid are required"))
			return
		}

		class, err := setter.GetClassRecord(r.Context(), req.ClassID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("class not found", slog.String("id", req.ClassID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get class", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set attendance"))
			return
		}

		if !class.Ended(time.Now()) {
			log.Error("class has not ended yet", slog.String("id", req.ClassID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "class has not ended yet"))
			return
		}

		updated, err := setter.SetAttendance(r.Context(), req.ClassID, req.UID, req.Attended)

		if errors.Is(err, response.ErrNotBooked) {
			log.Error("not booked")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_BOOKED), "user is not booked into this class"))
			return
		}

		if err != nil {
			log.Error("Failed to set attendance", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set attendance"))
			return
		}

		log.Info("Attendance updated", slog.String("class_id", req.ClassID), slog.String("uid", req.UID), slog.Bool("attended", req.Attended))
		render.JSON(w, r, Response{Class: *updated})
	}
}
