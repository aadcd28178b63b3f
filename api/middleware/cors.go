package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/go-chi/cors"
)

// TokenHeader carries a freshly issued access token on login and register
// responses.
const TokenHeader = "X-Storefront-Token"

// CORS lets the SPA origins call the API with credentials. Preflights are
// cached by the browser for cfg.MaxAge.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-Requested-With",
			CartDeviceHeader, idempotencyHeader, requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader, TokenHeader, replayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           int(cfg.MaxAge.Seconds()),
	}).Handler
}
