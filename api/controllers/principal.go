package controllers

import (
	"net/http"
	"strings"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/responses"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// RequirePrincipal returns the authenticated caller or an unauthorized error.
func RequirePrincipal(r *http.Request) (pkgAuth.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return principal, nil
}

// CallerAction is the body of an endpoint that acts for the signed-in caller.
type CallerAction func(r *http.Request, caller pkgAuth.Principal) (any, error)

// ForCaller resolves the principal, runs act and writes its result with
// status, or the error envelope.
func ForCaller(logg *logger.Logger, status int, act CallerAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := RequirePrincipal(r)
		if err == nil {
			var out any
			if out, err = act(r, caller); err == nil {
				responses.WriteSuccessStatus(w, status, out)
				return
			}
		}
		responses.WriteError(r.Context(), logg, w, err)
	}
}

// Unavailable answers every request with INTERNAL_ERROR. Routers mount it
// when a service was not wired.
func Unavailable(logg *logger.Logger, service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, service+" service unavailable"))
	}
}

// StatusFilter parses the optional status query parameter with parse.
func StatusFilter[T any](r *http.Request, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}
