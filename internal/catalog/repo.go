package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/pagination"
)

// Repository persists categories and products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ProductExists(ctx context.Context, id uuid.UUID) (bool, error)
	ExistingProductIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	OfferStats(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]OfferStats, error)
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

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")
	if !filters.IncludeInactive {
		query = query.Where("products.is_active = ?", true)
	}
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ? OR LOWER(products.manufacturer) LIKE ?",
			like, like, like,
		)
	}
	if filters.InStockOnly {
		query = query.Where(
			"EXISTS (SELECT 1 FROM distributor_inventories di WHERE di.product_id = products.id AND di.is_active = ? AND di.stock > 0)",
			true,
		)
	}
	query, err := pagination.Apply(query, "products", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Product
	err = query.Find(&rows).Error
	return rows, err
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistingProductIDs reports which of ids name a stored product.
func (r *repository) ExistingProductIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

type offerStatsRow struct {
	ProductID  uuid.UUID
	MinPrice   decimal.Decimal
	TotalStock int
	Offers     int
}

func (r *repository) OfferStats(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]OfferStats, error) {
	stats := make(map[uuid.UUID]OfferStats, len(productIDs))
	if len(productIDs) == 0 {
		return stats, nil
	}
	var rows []offerStatsRow
	err := r.db.WithContext(ctx).
		Model(&models.DistributorInventory{}).
		Select("product_id, MIN(price) AS min_price, SUM(stock) AS total_stock, COUNT(*) AS offers").
		Where("product_id IN ? AND is_active = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		minPrice := row.MinPrice
		stats[row.ProductID] = OfferStats{MinPrice: &minPrice, TotalStock: row.TotalStock, Offers: row.Offers}
	}
	return stats, nil
}
