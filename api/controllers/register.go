package controllers

import (
	"net/http"

	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/api/validators"
	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

// RegisterRequest onboards either side of the marketplace. Fields that do
// not apply to the chosen role are ignored.
type RegisterRequest struct {
	Role           enums.UserRole `json:"role" validate:"required,oneof=customer distributor"`
	Email          string         `json:"email" validate:"required,email"`
	Password       string         `json:"password" validate:"required"`
	CompanyName    string         `json:"company_name" validate:"required"`
	ContactName    string         `json:"contact_name"`
	Phone          *string        `json:"phone,omitempty"`
	DefaultAddress *string        `json:"default_address,omitempty"`
	Website        *string        `json:"website,omitempty" validate:"omitempty,url"`
}

// AuthRegister creates the account and signs it in.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil || svc == nil {
		return Unavailable(logg, "auth")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var err error
		switch body.Role {
		case enums.UserRoleCustomer:
			if body.ContactName == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "contact_name is required"))
				return
			}
			_, err = reg.RegisterCustomer(r.Context(), auth.RegisterCustomerRequest{
				Email:          body.Email,
				Password:       body.Password,
				CompanyName:    body.CompanyName,
				ContactName:    body.ContactName,
				Phone:          body.Phone,
				DefaultAddress: body.DefaultAddress,
			})
		case enums.UserRoleDistributor:
			_, err = reg.RegisterDistributor(r.Context(), auth.RegisterDistributorRequest{
				Email:       body.Email,
				Password:    body.Password,
				CompanyName: body.CompanyName,
				Phone:       body.Phone,
				Website:     body.Website,
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(TokenHeader, result.AccessToken)
		responses.WriteCreated(w, result)
	}
}

// AdminAuthRegister is mounted only outside production.
func AdminAuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	if reg == nil {
		return Unavailable(logg, "auth")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.AdminRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := reg.RegisterAdmin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]any{"user": user})
	}
}
