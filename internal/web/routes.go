package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kbediako/examgate/internal/web/handlers"
	"github.com/kbediako/examgate/internal/web/middleware"
)

func (s *Server) setupRoutes(deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Admins, s.sessionManager, deps.Mailer)
	verifyHandler := handlers.NewVerifyHandler(deps.Encoder, deps.Verifier, s.config.Encoder.MaxImageEdge)
	studentsHandler := handlers.NewStudentsHandler(deps.Students, deps.Encoder, s.config.Encoder.MaxImageEdge)
	sessionsHandler := handlers.NewSessionsHandler(deps.Sessions, s.config.Recognition.IndexKeyWidth)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Attendance)
	statsHandler := handlers.NewStatsHandler(deps.Students, deps.Sessions, deps.Attendance)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Kiosk verification endpoint. Kiosks hold no credentials; the
		// endpoint accepts images only and every attempt is logged.
		r.Post("/verify", verifyHandler.Verify)

		// Auth routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)
		r.Post("/auth/otp/request", authHandler.RequestOTP)
		r.Post("/auth/otp/verify", authHandler.VerifyOTP)

		// Management routes require a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			// Students
			r.Get("/students", studentsHandler.List)
			r.Post("/students", studentsHandler.Create)
			r.Get("/students/{id}", studentsHandler.Get)
			r.Put("/students/{id}", studentsHandler.Update)
			r.Delete("/students/{id}", studentsHandler.Delete)
			r.Post("/students/{id}/enroll", studentsHandler.Enroll)

			// Exam sessions
			r.Get("/sessions", sessionsHandler.ListSessions)
			r.Post("/sessions", sessionsHandler.CreateSession)
			r.Get("/sessions/{id}", sessionsHandler.GetSession)
			r.Post("/sessions/{id}/activate", sessionsHandler.ActivateSession)

			// Rooms
			r.Get("/rooms", sessionsHandler.ListRooms)
			r.Post("/rooms", sessionsHandler.CreateRoom)

			// Range assignments
			r.Get("/assignments", sessionsHandler.ListAssignments)
			r.Post("/assignments", sessionsHandler.CreateAssignment)

			// Attendance and audit trail
			r.Get("/attendance", attendanceHandler.List)
			r.Get("/logs", attendanceHandler.Logs)

			// Stats
			r.Get("/stats", statsHandler.Get)
		})
	})
}
