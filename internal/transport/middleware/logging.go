package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/genops/pkg/logger"
	chimw "github.com/go-chi/chi/middleware"
)

const maxLoggedBody = 2048

// redactedKeys are matched as substrings of lower-cased header and JSON keys.
var redactedKeys = []string{
	"token",
	"authorization",
	"cookie",
	"secret",
	"password",
	"credential",
}

// quietPaths are probed by load balancers and the docs UI; they log at debug.
var quietPaths = []string{"/health", "/ping", "/openapi.yml", "/swagger/"}

// LoggingMiddleware logs one line per request and one per response. ID tokens,
// session cookies and similar values are redacted and bodies are truncated.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := requestLogger(r, fallback)
			quiet := isQuiet(r.URL.Path)

			reqBody := readBody(r)
			lg.Log(r.Context(), levelFor(quiet, slog.LevelInfo), "incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"headers", redactHeaders(r.Header),
				"body", redactBody(reqBody),
			)

			respBody := &cappedBuffer{limit: maxLoggedBody}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(respBody)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			lg.Log(r.Context(), levelFor(quiet && status < 400, level), "response",
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.BytesWritten(),
				"body", redactBody(respBody.Bytes()),
			)
		})
	}
}

func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	lg := logger.FromOr(r.Context(), fallback)
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		lg = lg.With("request_id", reqID)
	}
	return lg
}

func isQuiet(path string) bool {
	for _, p := range quietPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func levelFor(quiet bool, level slog.Level) slog.Level {
	if quiet {
		return slog.LevelDebug
	}
	return level
}

func readBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > maxLoggedBody {
		return body[:maxLoggedBody]
	}
	return body
}

// cappedBuffer keeps the first limit bytes written to it and drops the rest.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.limit - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte { return c.buf.Bytes() }

func isRedacted(key string) bool {
	key = strings.ToLower(key)
	for _, k := range redactedKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		// truncated or non-JSON bodies are only logged when nothing looks secret
		if isRedacted(string(body)) {
			return "[REDACTED]"
		}
		return string(body)
	}

	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return "[UNPRINTABLE]"
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for key, inner := range val {
			if isRedacted(key) {
				val[key] = "[REDACTED]"
				continue
			}
			val[key] = redactValue(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = redactValue(inner)
		}
		return val
	default:
		return val
	}
}
