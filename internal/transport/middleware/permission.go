package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/frahmantamala/expenseflow/pkg/logger"
)

// RequireCapability rejects callers whose role lacks any of caps. Services
// repeat the check; this only stops obviously denied requests early.
func RequireCapability(caps ...role.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				writeAppError(w, internal.ErrUnauthenticated)
				return
			}

			for _, c := range caps {
				if p.Can(c) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.From(r.Context()).Warn("access denied: role lacks capability",
				"user_id", p.UserID,
				"role", p.Role,
				"required", caps)
			writeAppError(w, internal.ErrAccessDenied)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
