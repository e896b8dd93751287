package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/genops/internal"
)

// RequireSignedIn rejects requests without a signed-in user.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if internal.UserIDFromContext(r.Context()) == "" {
			writeAppError(w, internal.ErrNotSignedIn)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles creates a middleware that checks the dashboard role of the signed-in user.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := internal.UserIDFromContext(r.Context())
			if uid == "" {
				writeAppError(w, internal.ErrNotSignedIn)
				return
			}

			current := internal.RoleFromContext(r.Context())
			for _, allowed := range roles {
				if current == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			slog.Warn("Access denied: role not allowed",
				"uid", uid,
				"role", current,
				"allowed_roles", roles)
			writeAppError(w, internal.ErrForbiddenRole)
		})
	}
}

func writeAppError(w http.ResponseWriter, err *internal.AppError) {
	status, body := err.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
