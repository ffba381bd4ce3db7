// Package http provides the HTTP handlers for the PROTON signup endpoint.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/harishgurram/PROTON/internal/models"
)

// SignupService defines the interface for the signup operation required by
// the HTTP handlers.
type SignupService interface {
	// Signup runs the registration workflow for the given flavour and
	// payload and reports a structured outcome.
	Signup(ctx context.Context, flavour string, payload map[string]any) models.Result
}

// SignupHandler handles HTTP requests for user registration.
type SignupHandler struct {
	// SignupService performs the underlying signup operation.
	SignupService SignupService
}

// signupRequest represents the JSON body of a signup POST.
type signupRequest struct {
	// DBFlavour selects the database backend ("sqlite" or "postgresql").
	// A pointer distinguishes an absent key from an empty string: only the
	// absent key is malformed, an empty flavour is forwarded and rejected
	// by the service with the unsupported-flavour result.
	DBFlavour *string `json:"db_flavour"`
	// SignupPayload carries the registration fields.
	SignupPayload map[string]any `json:"signup_payload"`
}

// instructionalMessage is returned for request bodies the handler cannot
// use at all. A well-formed body whose signup is logically rejected still
// gets a 201 with the result attached.
const instructionalMessage = "POST request must contain 'db_flavour' " +
	"['sqlite' or 'postgresql'] and 'signup_payload'"

// Signup handles registration requests. It expects a JSON body with a
// db_flavour string and a signup_payload object. Malformed bodies get a
// 403 with a fixed instructional message; otherwise the service result is
// serialized with a 201 status regardless of its internal status field.
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DBFlavour == nil || req.SignupPayload == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": instructionalMessage})
		return
	}

	result := h.SignupService.Signup(r.Context(), *req.DBFlavour, req.SignupPayload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

// Unavailable rejects methods the signup endpoint does not serve.
func (h *SignupHandler) Unavailable(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "signup is available over POST only", http.StatusServiceUnavailable)
}
