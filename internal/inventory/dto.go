package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/pkg/db/models"
)

// UpsertInput sets a distributor's offer for one product.
type UpsertInput struct {
	DistributorID uuid.UUID
	ProductID     uuid.UUID
	Price         decimal.Decimal
	Stock         int
	DeliveryDays  int
	IsActive      *bool
}

type Item struct {
	ProductID    uuid.UUID       `json:"product_id"`
	SKU          string          `json:"sku,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	DeliveryDays int             `json:"delivery_days"`
	IsActive     bool            `json:"is_active"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Offer is one distributor's active listing as shown on a product page.
type Offer struct {
	DistributorID   uuid.UUID       `json:"distributor_id"`
	DistributorName string          `json:"distributor_name"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	DeliveryDays    int             `json:"delivery_days"`
}

func toItem(row models.DistributorInventory) Item {
	item := Item{
		ProductID:    row.ProductID,
		Price:        row.Price,
		Stock:        row.Stock,
		DeliveryDays: row.DeliveryDays,
		IsActive:     row.IsActive,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Product != nil {
		item.SKU = row.Product.SKU
		item.ProductName = row.Product.Name
	}
	return item
}
