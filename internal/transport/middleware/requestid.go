package middleware

import (
	"net/http"

	"github.com/frahmantamala/genops/pkg/logger"
	chimw "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// RequestID binds a trace id to the request logger and echoes it back. A caller
// supplied X-Trace-ID wins, then chi's request id, then a fresh uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = chimw.GetReqID(r.Context())
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(TraceHeader, traceID)
		ctx := logger.With(r.Context(), "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
