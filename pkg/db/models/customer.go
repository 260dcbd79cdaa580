package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is the buying side profile.
type Customer struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_customers_user"`
	CompanyName    string    `gorm:"column:company_name;not null"`
	ContactName    string    `gorm:"column:contact_name;not null"`
	Email          string    `gorm:"column:email;not null"`
	Phone          *string   `gorm:"column:phone"`
	DefaultAddress *string   `gorm:"column:default_address"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
