// Package swagger serves the interactive API browser for the published OpenAPI document.
package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves the swagger UI pointed at specURL with operations grouped by tag.
func Handler(specURL string) http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(specURL),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	)
}
