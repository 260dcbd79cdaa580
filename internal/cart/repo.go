package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partsbridge/marketplace/pkg/db/models"
)

// Repository persists carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddQuantity(ctx context.Context, cartID, distributorID, productID uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (int64, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreate returns the customer's cart, creating an empty one on first use.
func (r *repository) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	db := r.db.WithContext(ctx)
	cart := models.Cart{CustomerID: customerID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoNothing: true,
	}).Omit("Items").Create(&cart).Error
	if err != nil {
		return nil, err
	}
	return r.FindByCustomer(ctx, customerID)
}

func (r *repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		Preload("Items.Distributor").
		Where("customer_id = ?", customerID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddQuantity inserts the line or adds qty to an existing line for the same
// distributor and product.
func (r *repository) AddQuantity(ctx context.Context, cartID, distributorID, productID uuid.UUID, qty int) error {
	item := models.CartItem{
		CartID:        cartID,
		DistributorID: distributorID,
		ProductID:     productID,
		Quantity:      qty,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "distributor_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": time.Now().UTC(),
		}),
	}).Omit("Product", "Distributor").Create(&item).Error
}

func (r *repository) SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *repository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}

// DeleteIdleBefore removes carts untouched since cutoff along with their
// lines.
func (r *repository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	idle := db.Model(&models.Cart{}).Select("id").Where("updated_at < ?", cutoff)
	if err := db.Where("cart_id IN (?)", idle).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("updated_at < ?", cutoff).Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}
