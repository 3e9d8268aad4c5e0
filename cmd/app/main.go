package main

import (
	"gym-service/internal/config"
	"gym-service/internal/identity"
	attendanceSet "gym-service/internal/http-server/handlers/attendance/set"
	attendanceTop "gym-service/internal/http-server/handlers/attendance/top"
	bookingCancel "gym-service/internal/http-server/handlers/bookings/cancel"
	bookingCreate "gym-service/internal/http-server/handlers/bookings/create"
	bookingMove "gym-service/internal/http-server/handlers/bookings/move"
	classCreate "gym-service/internal/http-server/handlers/classes/create"
	classGenerate "gym-service/internal/http-server/handlers/classes/generate"
	classGet "gym-service/internal/http-server/handlers/classes/get"
	profileCreate "gym-service/internal/http-server/handlers/profiles/create"
	profileGet "gym-service/internal/http-server/handlers/profiles/get"
	profileUpdate "gym-service/internal/http-server/handlers/profiles/update"
	propagationRun "gym-service/internal/http-server/handlers/propagation/run"
	"gym-service/internal/lock"
	svc "gym-service/internal/service"
	"gym-service/internal/storage/postgres"
	slogpretty "gym-service/pkg/handlers/slogpretty"
	"gym-service/pkg/middleware/mwLogger"
	"gym-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Id, X-User-Name, X-User-Photo, X-User-Role")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err := storage.Init(context.Background()); err != nil {
		log.Error("Failed to init schema", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker)
	idp := identity.NewHeaderProvider()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Classes
	router.Post("/classes", classCreate.New(log, service, idp))
	router.Post("/classes/generate", classGenerate.New(log, service, idp))
	router.Get("/classes", classGet.New(log, service))
	router.Get("/classes/{id}", classGet.New(log, service))

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service, idp))
	router.Put("/bookings/cancel", bookingCancel.New(log, service, idp))
	router.Post("/bookings/move", bookingMove.New(log, service, idp))

	// Attendance
	router.Post("/attendance", attendanceSet.New(log, service, idp))
	router.Get("/attendance/top", attendanceTop.New(log, service))

	// Profiles
	router.Post("/profiles", profileCreate.New(log, service))
	router.Get("/profiles/{uid}", profileGet.New(log, service))
	router.Put("/profiles/{uid}", profileUpdate.New(log, service, idp))

	// Propagation (profile-update event redelivery)
	router.Post("/propagation", propagationRun.New(log, service, idp))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
