package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/partsbridge/marketplace/api/responses"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// RateLimit caps requests per client per minute. Authenticated callers are
// keyed by user, anonymous ones by IP.
func RateLimit(perMinute int, logg *logger.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
