// Package server wires the application together: it owns the dependency
// graph (database → repositories → services → handlers), the route table,
// and the HTTP server lifecycle. main.go only loads config and calls into
// here.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/auth"
	"github.com/kalendar-app/kalendar/internal/config"
	"github.com/kalendar-app/kalendar/internal/handler"
	"github.com/kalendar-app/kalendar/internal/middleware"
	"github.com/kalendar-app/kalendar/internal/model"
	sqliteRepo "github.com/kalendar-app/kalendar/internal/repository/sqlite"
	"github.com/kalendar-app/kalendar/internal/service"
)

// Server holds the HTTP server and its dependencies. The database
// connection is owned here and closed during shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and, when configured, seeds the
// initial admin account.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	passwords := auth.NewPasswordService()
	accounts := service.NewAccountService(db, tokens, passwords, logger)
	events := service.NewEventService(db, logger)

	if cfg.SeedAdmin {
		if err := s.seedAdmin(context.Background(), passwords); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding admin user: %w", err)
		}
	}

	s.setupRoutes(tokens, accounts, events)

	return s, nil
}

// setupRoutes registers middleware and the route table.
//
//	POST   /api/auth/register     → create account (public)
//	POST   /api/auth/login        → issue token (public)
//	GET    /api/users             → list users            (admin)
//	POST   /api/users             → create user           (admin)
//	DELETE /api/users/{id}        → delete user + events  (admin)
//	GET    /api/events            → list own/target calendar
//	POST   /api/events            → create event
//	PUT    /api/events/{id}       → partial update
//	DELETE /api/events/{id}       → delete event
//	GET    /api/events/export     → download .ics
//	GET    /api/health            → liveness probe (public)
func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	accounts *service.AccountService,
	events *service.EventService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(accounts, s.logger)
	userHandler := handler.NewUserHandler(accounts, s.logger)
	eventHandler := handler.NewEventHandler(events, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)

		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users", userHandler.HandleList)
			r.Post("/users", userHandler.HandleCreate)
			r.Delete("/users/{id}", userHandler.HandleDelete)

			r.Get("/events", eventHandler.HandleList)
			r.Post("/events", eventHandler.HandleCreate)
			r.Get("/events/export", eventHandler.HandleExport)
			r.Put("/events/{id}", eventHandler.HandleUpdate)
			r.Delete("/events/{id}", eventHandler.HandleDelete)
		})
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// seedAdmin creates the initial admin account when none exists, so a fresh
// deployment has a way in. Credentials come from config; outside
// development the default password is rejected at config load.
func (s *Server) seedAdmin(ctx context.Context, passwords *auth.PasswordService) error {
	_, err := s.db.GetUserByUsername(ctx, "admin")
	if err == nil {
		return nil // already seeded
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hash, err := passwords.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     "admin",
		Email:        s.cfg.AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := s.db.CreateUser(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("seeded initial admin user",
		slog.Int64("userID", admin.ID),
		slog.String("email", admin.Email),
	)
	return nil
}

// Handler exposes the assembled router, mainly for tests that drive the
// full stack through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database so the WAL is
// flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
