package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Distributor is the selling side profile.
type Distributor struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_distributors_user"`
	CompanyName string    `gorm:"column:company_name;not null"`
	Email       string    `gorm:"column:email;not null"`
	Phone       *string   `gorm:"column:phone"`
	Website     *string   `gorm:"column:website"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Distributor) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
