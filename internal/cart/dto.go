package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/internal/orders"
)

type LineInput struct {
	DistributorID uuid.UUID `json:"distributor_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
}

// CheckoutInput applies to every order produced by a checkout.
type CheckoutInput struct {
	Notes           *string
	DeliveryAddress *string
}

// ItemDTO prices a cart line at the distributor's current price. Unavailable
// lines carry no price and are excluded from the subtotal.
type ItemDTO struct {
	ID              uuid.UUID        `json:"id"`
	DistributorID   uuid.UUID        `json:"distributor_id"`
	DistributorName string           `json:"distributor_name,omitempty"`
	ProductID       uuid.UUID        `json:"product_id"`
	SKU             string           `json:"sku,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal       *decimal.Decimal `json:"line_total,omitempty"`
	Available       bool             `json:"available"`
	InStock         bool             `json:"in_stock"`
	DeliveryDays    int              `json:"delivery_days,omitempty"`
}

type CartDTO struct {
	ID       uuid.UUID       `json:"id"`
	Items    []ItemDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"item_count"`
}

// SkippedLine is a merged line that could not be added.
type SkippedLine struct {
	LineInput
	Reason string `json:"reason"`
}

type MergeResult struct {
	Cart    *CartDTO      `json:"cart"`
	Skipped []SkippedLine `json:"skipped"`
}

type CheckoutResult struct {
	Orders []orders.OrderDTO `json:"orders"`
	Total  decimal.Decimal   `json:"total"`
}
