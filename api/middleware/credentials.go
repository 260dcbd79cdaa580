package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/auth/session"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
)

// Trusted identity headers set by a fronting proxy in development.
const (
	HeaderUserType  = "X-User-Type"
	HeaderUserID    = "X-User-Id"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

// CredentialResolver turns an inbound request into the principal it acts for.
type CredentialResolver interface {
	Resolve(r *http.Request) (pkgAuth.Principal, error)
}

// NewCredentialResolver picks the resolver configured by Auth.Mode. Trusted
// headers are refused outside non-production environments.
func NewCredentialResolver(cfg *config.Config, sessions session.AccessSessionChecker) (CredentialResolver, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	mode, err := config.ParseAuthMode(cfg.Auth.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case config.AuthModeTrustedHeaders:
		if !cfg.App.IsNonProduction() {
			return nil, fmt.Errorf("trusted header credentials are not allowed in env %q", cfg.App.Env)
		}
		return TrustedHeaderResolver{}, nil
	default:
		if strings.TrimSpace(cfg.JWT.Secret) == "" {
			return nil, errors.New("jwt secret required for token credentials")
		}
		return &TokenResolver{cfg: cfg.JWT, sessions: sessions}, nil
	}
}

// TokenResolver validates a bearer JWT and, when a session checker is set,
// that its session has not been revoked.
type TokenResolver struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

func NewTokenResolver(cfg config.JWTConfig, sessions session.AccessSessionChecker) *TokenResolver {
	return &TokenResolver{cfg: cfg, sessions: sessions}
}

func (t *TokenResolver) Resolve(r *http.Request) (pkgAuth.Principal, error) {
	token := BearerToken(r)
	if token == "" {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(t.cfg, token)
	if err != nil {
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if !claims.Role.IsValid() || claims.ProfileID == uuid.Nil {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}

	if t.sessions != nil {
		ok, err := t.sessions.HasSession(r.Context(), claims.ID)
		if err != nil {
			return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims.Principal(), nil
}

// TrustedHeaderResolver believes the identity headers as sent. X-User-Id is
// the profile id; the user id is not known and mirrors it.
type TrustedHeaderResolver struct{}

func (TrustedHeaderResolver) Resolve(r *http.Request) (pkgAuth.Principal, error) {
	rawType := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserType)))
	rawID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if rawType == "" || rawID == "" {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	role := enums.UserRole(rawType)
	if !role.IsValid() {
		return pkgAuth.Principal{}, pkgerrors.Newf(pkgerrors.CodeUnauthorized, "unknown user type %q", rawType)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id")
	}
	return pkgAuth.Principal{
		ID:     id,
		UserID: id,
		Role:   role,
		Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
		Email:  strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
	}, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
