package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/internal/users"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/db"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterService creates login identities together with their profile.
type RegisterService interface {
	RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*users.UserDTO, error)
	RegisterDistributor(ctx context.Context, req RegisterDistributorRequest) (*users.UserDTO, error)
	RegisterAdmin(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*users.UserDTO, error) {
	company := strings.TrimSpace(req.CompanyName)
	contact := strings.TrimSpace(req.ContactName)
	if company == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required")
	}
	if contact == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_name is required")
	}
	return s.register(ctx, req.Email, req.Password, contact, enums.UserRoleCustomer, func(repo *users.Repository, identity *users.Identity) error {
		customer := &models.Customer{
			UserID:         identity.User.ID,
			CompanyName:    company,
			ContactName:    contact,
			Email:          identity.User.Email,
			Phone:          req.Phone,
			DefaultAddress: req.DefaultAddress,
		}
		if err := repo.CreateCustomer(ctx, customer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}
		identity.Customer = customer
		return nil
	})
}

func (s *registerService) RegisterDistributor(ctx context.Context, req RegisterDistributorRequest) (*users.UserDTO, error) {
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company_name is required")
	}
	return s.register(ctx, req.Email, req.Password, company, enums.UserRoleDistributor, func(repo *users.Repository, identity *users.Identity) error {
		distributor := &models.Distributor{
			UserID:      identity.User.ID,
			CompanyName: company,
			Email:       identity.User.Email,
			Phone:       req.Phone,
			Website:     req.Website,
			IsActive:    true,
		}
		if err := repo.CreateDistributor(ctx, distributor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create distributor")
		}
		identity.Distributor = distributor
		return nil
	})
}

// RegisterAdmin is only routed outside production.
func (s *registerService) RegisterAdmin(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}
	return s.register(ctx, req.Email, req.Password, name, enums.UserRoleAdmin, nil)
}

func (s *registerService) register(
	ctx context.Context,
	email, password, displayName string,
	role enums.UserRole,
	withProfile func(repo *users.Repository, identity *users.Identity) error,
) (*users.UserDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	passwordHash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var identity users.Identity
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  displayName,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		identity.User = user
		if withProfile == nil {
			return nil
		}
		return withProfile(userRepo, &identity)
	})
	if err != nil {
		return nil, err
	}
	return users.FromIdentity(identity), nil
}
