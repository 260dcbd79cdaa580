package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partsbridge/marketplace/pkg/db/models"
)

// Repository persists distributor inventory rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, distributorID, productID uuid.UUID) (*models.DistributorInventory, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID) ([]models.DistributorInventory, error)
	ListOffersForProduct(ctx context.Context, productID uuid.UUID) ([]models.DistributorInventory, error)
	Upsert(ctx context.Context, row *models.DistributorInventory) error
	DecrementStock(ctx context.Context, distributorID, productID uuid.UUID, qty int) (int64, error)
	IncrementStock(ctx context.Context, distributorID, productID uuid.UUID, qty int) (int64, error)
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

func (r *repository) Find(ctx context.Context, distributorID, productID uuid.UUID) (*models.DistributorInventory, error) {
	var row models.DistributorInventory
	err := r.db.WithContext(ctx).
		Where("distributor_id = ? AND product_id = ?", distributorID, productID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByDistributor(ctx context.Context, distributorID uuid.UUID) ([]models.DistributorInventory, error) {
	var rows []models.DistributorInventory
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("distributor_id = ?", distributorID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListOffersForProduct(ctx context.Context, productID uuid.UUID) ([]models.DistributorInventory, error) {
	var rows []models.DistributorInventory
	err := r.db.WithContext(ctx).
		Preload("Distributor").
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("price ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Upsert(ctx context.Context, row *models.DistributorInventory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "distributor_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "stock", "delivery_days", "is_active", "updated_at"}),
		}).
		Create(row).Error
}

// DecrementStock removes qty in a single conditional statement. Zero rows
// affected means the row is missing, inactive or short on stock.
func (r *repository) DecrementStock(ctx context.Context, distributorID, productID uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DistributorInventory{}).
		Where("distributor_id = ? AND product_id = ? AND is_active = ? AND stock >= ?", distributorID, productID, true, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) IncrementStock(ctx context.Context, distributorID, productID uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DistributorInventory{}).
		Where("distributor_id = ? AND product_id = ?", distributorID, productID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
