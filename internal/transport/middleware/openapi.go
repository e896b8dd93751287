package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/genops/internal"
)

// RequestValidator checks requests against an OpenAPI document. Paths in the document
// are relative to prefix.
type RequestValidator struct {
	router routers.Router
	prefix string
	logger *slog.Logger
}

func NewRequestValidator(spec []byte, prefix string, logger *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	// match on path only
	doc.Servers = nil

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &RequestValidator{
		router: router,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger,
	}, nil
}

// Middleware rejects documented operations whose parameters or body do not match the
// document. Undocumented routes pass through untouched.
func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil && r.Body != http.NoBody {
			data, err := io.ReadAll(r.Body)
			if err != nil {
				writeAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
				return
			}
			body = data
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		probe := r.Clone(r.Context())
		probe.URL.Path = strings.TrimPrefix(r.URL.Path, v.prefix)
		probe.URL.RawPath = ""
		if probe.URL.Path == "" {
			probe.URL.Path = "/"
		}
		if body != nil {
			probe.Body = io.NopCloser(bytes.NewReader(body))
		}

		route, pathParams, err := v.router.FindRoute(probe)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    probe,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.logger.Warn("request does not match api document",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err)
			writeAppError(w, internal.NewValidationError(requestErrorMessage(err), internal.ErrCodeValidationFailed))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestErrorMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			field := strings.Join(schemaErr.JSONPointer(), ".")
			if field != "" {
				return fmt.Sprintf("%s: %s", field, schemaErr.Reason)
			}
			return schemaErr.Reason
		}
		if reqErr.Parameter != nil {
			return fmt.Sprintf("parameter %s: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.Reason != "" {
			return reqErr.Reason
		}
	}
	return "request does not match the api document"
}
