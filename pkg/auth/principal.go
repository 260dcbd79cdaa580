package auth

import (
	"github.com/google/uuid"

	"github.com/partsbridge/marketplace/pkg/enums"
)

// Principal is the caller a request acts for. ID is the customer or
// distributor profile id; admins act with their user id.
type Principal struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   enums.UserRole
	Name   string
	Email  string
}

func (p Principal) IsCustomer() bool    { return p.Role == enums.UserRoleCustomer }
func (p Principal) IsDistributor() bool { return p.Role == enums.UserRoleDistributor }
func (p Principal) IsAdmin() bool       { return p.Role == enums.UserRoleAdmin }
