package middleware

import (
	"net/http"

	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// Authenticate resolves the caller and seeds the request context and log
// fields with the principal.
func Authenticate(resolver CredentialResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
				ctx = logg.WithProfileID(ctx, principal.ID.String())
				ctx = logg.WithActorRole(ctx, string(principal.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
