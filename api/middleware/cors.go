package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the configured browser origins call the API with credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, replayHeader},

		AllowCredentials: true,
		MaxAge:           300,
	})
}
