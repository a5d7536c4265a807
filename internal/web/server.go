// Package web serves the HTTP API for kiosks and the admin panel.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/mailer"
	"github.com/kbediako/examgate/internal/recognition"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/web/handlers"
	"github.com/kbediako/examgate/internal/web/middleware"
)

// Deps carries the collaborators the server needs. Everything is passed in
// explicitly; the server holds no global state.
type Deps struct {
	Students   store.StudentStore
	Sessions   store.SessionStore
	Attendance store.AttendanceStore
	Admins     store.AdminStore

	Encoder  handlers.FaceEncoder
	Verifier *recognition.Verifier
	Mailer   mailer.Mailer

	// SessionRepo persists admin sessions across restarts; nil keeps
	// them in memory.
	SessionRepo middleware.SessionRepository
}

// Server represents the web server.
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, host string, port int, deps Deps) *Server {
	r := chi.NewRouter()

	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret, deps.SessionRepo)

	s := &Server{
		config:         cfg,
		router:         r,
		sessionManager: sessionManager,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
