// Package http provides HTTP routing and middleware configuration
// for the PROTON signup service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/harishgurram/PROTON/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns the HTTP handler serving the signup API.
//
// Routes:
//
//	POST /signup → signupHandler.Signup
//	GET  /signup → signupHandler.Unavailable (503)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
func NewRouter(signupHandler *SignupHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Post("/signup", signupHandler.Signup)
	r.Get("/signup", signupHandler.Unavailable)

	return r
}
