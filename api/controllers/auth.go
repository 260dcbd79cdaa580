package controllers

import (
	"context"
	"net/http"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/api/validators"
	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// TokenHeader mirrors the issued access token for clients that read headers.
const TokenHeader = "X-PB-Token"

// issue decodes a body of type T, exchanges it for tokens and writes them.
func issue[T any](logg *logger.Logger, status int, exchange func(context.Context, T) (*auth.TokenResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tokens, err := exchange(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(TokenHeader, tokens.AccessToken)
		responses.WriteSuccessStatus(w, status, tokens)
	}
}

// AuthLogin exchanges email and password for an access/refresh pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return Unavailable(logg, "auth")
	}
	return issue(logg, http.StatusOK, svc.Login)
}

// AuthRefresh rotates the refresh token. The old one stops working.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return Unavailable(logg, "auth")
	}
	return issue(logg, http.StatusOK, svc.Refresh)
}

// AuthLogout ends the session of the bearer token, falling back to the
// access_token field of the body.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return Unavailable(logg, "auth")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		if token == "" {
			var body auth.LogoutRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			token = body.AccessToken
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
