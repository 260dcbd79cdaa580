package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DistributorInventory is a distributor's offer for one product.
type DistributorInventory struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	DistributorID uuid.UUID       `gorm:"column:distributor_id;type:uuid;not null;uniqueIndex:ux_distributor_inventories_pair,priority:1"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_distributor_inventories_pair,priority:2"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock         int             `gorm:"column:stock;not null;default:0"`
	DeliveryDays  int             `gorm:"column:delivery_days;not null"`
	IsActive      bool            `gorm:"column:is_active;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product     *Product     `gorm:"foreignKey:ProductID"`
	Distributor *Distributor `gorm:"foreignKey:DistributorID"`
}

func (DistributorInventory) TableName() string {
	return "distributor_inventories"
}

func (i *DistributorInventory) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
