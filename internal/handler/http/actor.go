package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// requestActor writes a 401 and returns false when the route was reached without authentication.
func requestActor(w http.ResponseWriter, r *http.Request) (actor.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return actor.Actor{}, false
	}
	return a, true
}

// uuidParam reads a URL parameter that must be a UUID.
func uuidParam(w http.ResponseWriter, r *http.Request, name string, label string) (string, bool) {
	id := chi.URLParam(r, name)
	if id == "" {
		response.BadRequest(w, label+" is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, label+" must be a valid UUID", nil)
		return "", false
	}
	return id, true
}
