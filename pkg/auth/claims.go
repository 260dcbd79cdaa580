package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/partsbridge/marketplace/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
	Name      string
	Email     string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	ProfileID uuid.UUID      `json:"profile_id"`
	Role      enums.UserRole `json:"role"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the acting identity described by the claims.
func (c *AccessTokenClaims) Principal() Principal {
	return Principal{
		ID:     c.ProfileID,
		UserID: c.UserID,
		Role:   c.Role,
		Name:   c.Name,
		Email:  c.Email,
	}
}
