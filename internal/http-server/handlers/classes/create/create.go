package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gym-service/api"
	"gym-service/internal/identity"
	"gym-service/pkg/response"
	"gym-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ClassCreator interface {
	CreateClass(ctx context.Context, req *api.SlotTemplate, date string) (*api.ClassResponse, error)
}

type Request struct {
	api.SlotTemplate
	Date string `json:"date"`
}

type Response struct {
	response.Response
	Class api.ClassResponse `json:"class,omitempty"`
}

func New(log *slog.Logger, creator ClassCreator, idp identity.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.classes.create.New"

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

		if req.Name == "" || req.Date == "" || req.Time == "" {
			log.Error("name, date and time are required")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "name, date and time are required"))
			return
		}

		class, err := creator.CreateClass(r.Context(), &req.SlotTemplate, req.Date)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid class definition", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid class definition"))
			return
		}

		if err != nil {
			log.Error("Failed to create class", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create class"))
			return
		}

		log.Info("Class created", slog.String("id", class.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Class: *class})
	}
}
