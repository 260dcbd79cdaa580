package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/pkg/db/models"
)

// ProductFilters narrow the product list.
type ProductFilters struct {
	CategoryID      *uuid.UUID
	Search          string
	InStockOnly     bool
	IncludeInactive bool
}

// OfferStats aggregates the active offers for a product.
type OfferStats struct {
	MinPrice   *decimal.Decimal
	TotalStock int
	Offers     int
}

type CategoryInput struct {
	Name        string
	Description *string
}

type ProductInput struct {
	CategoryID   *uuid.UUID
	SKU          string
	Name         string
	Manufacturer string
	Description  *string
	DatasheetURL *string
	IsActive     *bool
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

type ProductSummary struct {
	ID           uuid.UUID        `json:"id"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	Manufacturer string           `json:"manufacturer"`
	Category     *CategoryDTO     `json:"category,omitempty"`
	IsActive     bool             `json:"is_active"`
	FromPrice    *decimal.Decimal `json:"from_price,omitempty"`
	TotalStock   int              `json:"total_stock"`
	OfferCount   int              `json:"offer_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

type ProductList struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type ProductDetail struct {
	ProductSummary
	Description  *string           `json:"description,omitempty"`
	DatasheetURL *string           `json:"datasheet_url,omitempty"`
	Offers       []inventory.Offer `json:"offers"`
}

func toCategoryDTO(row *models.Category) *CategoryDTO {
	if row == nil {
		return nil
	}
	return &CategoryDTO{ID: row.ID, Name: row.Name, Description: row.Description}
}

func toProductSummary(row models.Product, stats OfferStats) ProductSummary {
	return ProductSummary{
		ID:           row.ID,
		SKU:          row.SKU,
		Name:         row.Name,
		Manufacturer: row.Manufacturer,
		Category:     toCategoryDTO(row.Category),
		IsActive:     row.IsActive,
		FromPrice:    stats.MinPrice,
		TotalStock:   stats.TotalStock,
		OfferCount:   stats.Offers,
		CreatedAt:    row.CreatedAt,
	}
}
