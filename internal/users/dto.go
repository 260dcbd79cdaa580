package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// UserDTO is the transport shape that omits credentials. ProfileID is the
// customer or distributor row the user acts through.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	ProfileID   *uuid.UUID     `json:"profile_id,omitempty"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        enums.UserRole `json:"role"`
	CompanyName string         `json:"company_name,omitempty"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateUserDTO holds the data required to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Role         enums.UserRole
}

// Identity is a user with the profile it acts through. Admins carry no profile.
type Identity struct {
	User        *models.User
	Customer    *models.Customer
	Distributor *models.Distributor
}

// ProfileID returns the id a principal should act with.
func (i Identity) ProfileID() uuid.UUID {
	switch {
	case i.Customer != nil:
		return i.Customer.ID
	case i.Distributor != nil:
		return i.Distributor.ID
	case i.User != nil:
		return i.User.ID
	default:
		return uuid.Nil
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		DisplayName:  c.DisplayName,
		Role:         c.Role,
		IsActive:     true,
	}
}

func FromIdentity(identity Identity) *UserDTO {
	u := identity.User
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	switch {
	case identity.Customer != nil:
		id := identity.Customer.ID
		dto.ProfileID = &id
		dto.CompanyName = identity.Customer.CompanyName
	case identity.Distributor != nil:
		id := identity.Distributor.ID
		dto.ProfileID = &id
		dto.CompanyName = identity.Distributor.CompanyName
	}
	return dto
}
