// Package server wires the HTTP router, middleware, and the render pipeline
// together, and owns graceful startup/shutdown. This is the composition
// root: every dependency chain is assembled in New, nothing is global.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/chartlab/internal/auth"
	"github.com/sakif/chartlab/internal/config"
	"github.com/sakif/chartlab/internal/handler"
	"github.com/sakif/chartlab/internal/middleware"
	"github.com/sakif/chartlab/internal/render/python"
	sqliteRepo "github.com/sakif/chartlab/internal/repository/sqlite"
	"github.com/sakif/chartlab/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	janitor *service.Janitor
	tokens  *auth.TokenService // nil when auth is disabled
}

// New assembles the full dependency chain:
//
//	sqlite.DB → RenderService (with python.Renderer) → RenderHandler
//
// The handler never touches the renderer or the database directly, and the
// service never touches HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.janitor = service.NewJanitor(db, cfg.Storage.Retention, cfg.Storage.PruneInterval, logger)

	if cfg.Auth.TokenSecret != "" {
		tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring auth: %w", err)
		}
		s.tokens = tokens
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	renderer := python.New(python.Config{
		PythonBin:     s.config.Renderer.PythonBin,
		WorkspaceRoot: s.config.Renderer.WorkspaceRoot,
		Timeout:       s.config.Renderer.Timeout,
		CleanupGrace:  s.config.Renderer.CleanupGrace,
	}, s.logger)

	renderService := service.NewRenderService(renderer, s.db, s.logger)
	renderHandler := handler.NewRenderHandler(renderService, s.logger)
	healthHandler := handler.NewHealthHandler(s.config.Renderer.PythonBin)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Bearer auth only when a secret is configured; the default
		// single-tenant local deployment runs open.
		if s.tokens != nil {
			r.Use(auth.RequireAuth(s.tokens))
			s.logger.Info("bearer-token auth enabled on /api")
		}

		r.Post("/render", renderHandler.HandleRender)
		r.Get("/jobs", renderHandler.HandleListJobs)
		r.Get("/jobs/{id}", renderHandler.HandleGetJob)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// stop the history janitor, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	s.janitor.Start()
	defer s.janitor.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Render responses carry base64 images and wait on the interpreter;
		// give them the full execution timeout plus slack.
		WriteTimeout: s.config.Renderer.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Storage.DBPath),
			slog.String("workspaces", s.config.Renderer.WorkspaceRoot),
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
