package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/enums"
)

// Order is a purchase from one distributor, placed directly or produced by
// accepting a quotation response.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID            uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	DistributorID         uuid.UUID         `gorm:"column:distributor_id;type:uuid;not null;index"`
	QuotationResponseID   *uuid.UUID        `gorm:"column:quotation_response_id;type:uuid;uniqueIndex:ux_orders_quotation_response"`
	Status                enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	TotalAmount           decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes                 *string           `gorm:"column:notes"`
	DeliveryAddress       *string           `gorm:"column:delivery_address"`
	EstimatedDeliveryDays *int              `gorm:"column:estimated_delivery_days"`
	CancelledAt           *time.Time        `gorm:"column:cancelled_at"`
	DeliveredAt           *time.Time        `gorm:"column:delivered_at"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots the unit price at order time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
