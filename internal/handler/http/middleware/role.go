package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := ActorFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		if !a.CanManagePayroll() {
			response.HandleError(w, actor.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
