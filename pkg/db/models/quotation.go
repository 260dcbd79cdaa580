package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsbridge/marketplace/pkg/enums"
)

// QuotationRequest is a customer's bundled ask for prices.
type QuotationRequest struct {
	ID              uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID                    `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.QuotationRequestStatus `gorm:"column:status;not null;default:'pending'"`
	Notes           *string                      `gorm:"column:notes"`
	RequiredBy      time.Time                    `gorm:"column:required_by;not null"`
	DeliveryAddress string                       `gorm:"column:delivery_address;not null"`
	ContactPhone    string                       `gorm:"column:contact_phone;not null"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                    `gorm:"column:updated_at;autoUpdateTime"`

	Items     []QuotationRequestItem `gorm:"foreignKey:QuotationRequestID"`
	Responses []QuotationResponse    `gorm:"foreignKey:QuotationRequestID"`
}

func (r *QuotationRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type QuotationRequestItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	QuotationRequestID uuid.UUID `gorm:"column:quotation_request_id;type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity           int       `gorm:"column:quantity;not null"`
	Specification      *string   `gorm:"column:specification"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *QuotationRequestItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// QuotationResponse is one distributor's offer. The (request, distributor)
// pair is unique.
type QuotationResponse struct {
	ID                 uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	QuotationRequestID uuid.UUID                     `gorm:"column:quotation_request_id;type:uuid;not null;uniqueIndex:ux_quotation_responses_request_distributor,priority:1"`
	DistributorID      uuid.UUID                     `gorm:"column:distributor_id;type:uuid;not null;uniqueIndex:ux_quotation_responses_request_distributor,priority:2"`
	Status             enums.QuotationResponseStatus `gorm:"column:status;not null;default:'submitted'"`
	TotalPrice         decimal.Decimal               `gorm:"column:total_price;type:numeric(12,2);not null"`
	Notes              *string                       `gorm:"column:notes"`
	SubmittedAt        time.Time                     `gorm:"column:submitted_at;not null"`
	CreatedAt          time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                     `gorm:"column:updated_at;autoUpdateTime"`

	Items       []QuotationResponseItem `gorm:"foreignKey:QuotationResponseID"`
	Distributor *Distributor            `gorm:"foreignKey:DistributorID"`
}

func (r *QuotationResponse) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	return nil
}

type QuotationResponseItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuotationResponseID uuid.UUID       `gorm:"column:quotation_response_id;type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Stock               int             `gorm:"column:stock;not null"`
	DeliveryDays        int             `gorm:"column:delivery_days;not null"`
	Quantity            int             `gorm:"column:quantity;not null"`
	LineTotal           decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (i *QuotationResponseItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
