package middleware

import (
	"net/http"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/pkg/logger"
)

// PrincipalLogFields tags the request logger with the authenticated caller.
// It must run after the auth middleware.
func PrincipalLogFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := internal.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", p.UserID, "role", p.Role.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
