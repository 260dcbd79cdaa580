package config

import (
	"fmt"
	"strings"
)

const EnvPrefix = "PARTSBRIDGE"

const (
	EnvAppEnv                 = "PARTSBRIDGE_APP_ENV"
	EnvPort                   = "PARTSBRIDGE_APP_PORT"
	EnvDBDSN                  = "PARTSBRIDGE_DB_DSN"
	EnvDBHost                 = "PARTSBRIDGE_DB_HOST"
	EnvDBUser                 = "PARTSBRIDGE_DB_USER"
	EnvDBName                 = "PARTSBRIDGE_DB_NAME"
	EnvRedisURL               = "PARTSBRIDGE_REDIS_URL"
	EnvJWTSecret              = "PARTSBRIDGE_JWT_SECRET"
	EnvJWTIssuer              = "PARTSBRIDGE_JWT_ISSUER"
	EnvJWTExpMins             = "PARTSBRIDGE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PARTSBRIDGE_REFRESH_TOKEN_TTL_MINUTES"
	EnvAuthMode               = "PARTSBRIDGE_AUTH_MODE"
	EnvQuotationItemPolicy    = "PARTSBRIDGE_QUOTATION_ITEM_POLICY"
	EnvWebAPIBaseURL          = "PARTSBRIDGE_WEB_API_BASE_URL"
	EnvWebSessionSecret       = "PARTSBRIDGE_WEB_SESSION_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	AppEnvDev   = "dev"
	AppEnvLocal = "local"
	AppEnvTest  = "test"
	AppEnvProd  = "prod"
)

var nonProductionEnvs = []string{AppEnvDev, AppEnvLocal, AppEnvTest}

// AuthMode selects how API requests are turned into a principal.
type AuthMode string

const (
	AuthModeJWT            AuthMode = "jwt"
	AuthModeTrustedHeaders AuthMode = "trusted_headers"
)

func ParseAuthMode(value string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", AuthModeJWT:
		return AuthModeJWT, nil
	case AuthModeTrustedHeaders:
		return AuthModeTrustedHeaders, nil
	default:
		return "", fmt.Errorf("invalid %s %q", EnvAuthMode, value)
	}
}

// ItemPolicy controls what happens to quotation request lines that reference
// unknown products.
type ItemPolicy string

const (
	ItemPolicyLenient ItemPolicy = "lenient"
	ItemPolicyStrict  ItemPolicy = "strict"
)

func ParseItemPolicy(value string) (ItemPolicy, error) {
	switch ItemPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ItemPolicyLenient:
		return ItemPolicyLenient, nil
	case ItemPolicyStrict:
		return ItemPolicyStrict, nil
	default:
		return "", fmt.Errorf("invalid %s %q", EnvQuotationItemPolicy, value)
	}
}
