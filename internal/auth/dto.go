package auth

import (
	"time"

	"github.com/partsbridge/marketplace/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest pairs the (possibly expired) access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// RegisterCustomerRequest onboards a buying company.
type RegisterCustomerRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required"`
	CompanyName    string  `json:"company_name" validate:"required"`
	ContactName    string  `json:"contact_name" validate:"required"`
	Phone          *string `json:"phone,omitempty"`
	DefaultAddress *string `json:"default_address,omitempty"`
}

// RegisterDistributorRequest onboards a selling company.
type RegisterDistributorRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required"`
	CompanyName string  `json:"company_name" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
}

// AdminRegisterRequest contains the credentials for the dev-only admin registration flow.
type AdminRegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
}

// TokenResponse contains the tokens and user produced by login or refresh.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	User         *users.UserDTO `json:"user"`
}
