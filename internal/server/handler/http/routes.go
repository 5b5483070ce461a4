// Package http provides HTTP routing and middleware configuration
// for the development backend.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/slashmsg/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// messenger REST API. Liveness and authentication endpoints are
// public; everything else requires a bearer token, and the /admin
// subtree additionally requires the admin role.
//
// Routes:
//
//	GET    /ping                       → liveness probe
//	POST   /auth/signup                → create account
//	POST   /auth/login                 → authenticate
//	GET    /uploads/*                  → stored media files
//	GET    /me, PATCH /me              → identity (protected)
//	GET    /messages/conversations     → conversation list (protected)
//	GET    /messages/with/{userID}     → pair history (protected)
//	POST   /messages/send              → send message (protected)
//	POST   /upload                     → media upload (protected)
//	GET    /users/search               → user search (protected)
//	POST   /block/{userID}             → block (protected)
//	DELETE /block/{userID}             → unblock (protected)
//	/admin/users, /admin/logs,
//	/admin/suspend/{userID},
//	/admin/activate/{userID}           → moderation (admin only)
func NewRouter(
	authHandler *AuthHandler,
	messagesHandler *MessagesHandler,
	uploadHandler *UploadHandler,
	adminHandler *AdminHandler,
	auth middleware.Authenticator,
	uploadDir string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public endpoints
	r.Get("/ping", authHandler.Ping)
	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/login", authHandler.Login)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	// Protected group: requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(auth))

		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)

		r.Get("/messages/conversations", messagesHandler.Conversations)
		r.Get("/messages/with/{userID}", messagesHandler.History)
		r.Post("/messages/send", messagesHandler.Send)
		r.Post("/upload", uploadHandler.Upload)
		r.Get("/users/search", messagesHandler.Search)
		r.Post("/block/{userID}", messagesHandler.Block)
		r.Delete("/block/{userID}", messagesHandler.Unblock)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", adminHandler.Users)
			r.Get("/logs", adminHandler.Logs)
			r.Post("/suspend/{userID}", adminHandler.Suspend)
			r.Post("/activate/{userID}", adminHandler.Activate)
		})
	})

	return r
}
