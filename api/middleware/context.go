package middleware

import (
	"context"

	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, principal pkgAuth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

func PrincipalFromContext(ctx context.Context) (pkgAuth.Principal, bool) {
	if ctx == nil {
		return pkgAuth.Principal{}, false
	}
	principal, ok := ctx.Value(ctxPrincipal).(pkgAuth.Principal)
	return principal, ok
}

func UserIDFromContext(ctx context.Context) string {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return principal.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return string(principal.Role)
	}
	return ""
}
