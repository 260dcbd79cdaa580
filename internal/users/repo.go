package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// Repository persists accounts and their customer or distributor profile.
// Bind it to a transaction with NewRepository(tx) to register atomically.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// first loads the single row of T matching query.
func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *Repository) CreateDistributor(ctx context.Context, distributor *models.Distributor) error {
	return r.db.WithContext(ctx).Create(distributor).Error
}

// FindByEmail expects email already normalized by the caller.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](ctx, r.db, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return first[models.User](ctx, r.db, "id = ?", id)
}

// LoadIdentity pairs user with its role's profile. A missing profile row is
// gorm.ErrRecordNotFound; admins have none.
func (r *Repository) LoadIdentity(ctx context.Context, user *models.User) (Identity, error) {
	identity := Identity{User: user}
	var err error
	switch user.Role {
	case enums.UserRoleCustomer:
		identity.Customer, err = first[models.Customer](ctx, r.db, "user_id = ?", user.ID)
	case enums.UserRoleDistributor:
		identity.Distributor, err = first[models.Distributor](ctx, r.db, "user_id = ?", user.ID)
	case enums.UserRoleAdmin:
	default:
		err = fmt.Errorf("users: unknown role %q", user.Role)
	}
	return identity, err
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setColumn(ctx, id, "last_login_at", at)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash)
}

// setColumn skips hooks and updated_at.
func (r *Repository) setColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn(column, value).Error
}
