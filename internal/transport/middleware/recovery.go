package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/genops/internal"
)

// RecoveryMiddleware turns a handler panic into the generic INTERNAL_ERROR envelope.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http uses this sentinel to abort a response on purpose
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"panic", rec,
					"trace_id", w.Header().Get(TraceHeader),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				writeAppError(w, internal.NewInternalError(internal.GenericFailureMessage, fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
