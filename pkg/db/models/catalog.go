package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Product is a manufacturer part listed in the catalog. Prices live on the
// per-distributor inventory rows.
type Product struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID   *uuid.UUID `gorm:"column:category_id;type:uuid"`
	SKU          string     `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	Name         string     `gorm:"column:name;not null"`
	Manufacturer string     `gorm:"column:manufacturer;not null"`
	Description  *string    `gorm:"column:description"`
	DatasheetURL *string    `gorm:"column:datasheet_url"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
