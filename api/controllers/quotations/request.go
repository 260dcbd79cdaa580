package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/internal/quotations"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
)

type requestItem struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"gte=1"`
	Specification *string   `json:"specification,omitempty" validate:"omitempty,max=1000"`
}

type submitRequestBody struct {
	RequiredBy      *time.Time    `json:"required_by,omitempty"`
	DeliveryAddress string        `json:"delivery_address" validate:"required,max=500"`
	ContactPhone    string        `json:"contact_phone" validate:"required,max=40"`
	Notes           *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items           []requestItem `json:"items" validate:"required,min=1,dive"`
}

type responseItem struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	DeliveryDays int             `json:"delivery_days" validate:"gte=1"`
	Quantity     int             `json:"quantity" validate:"gte=1"`
}

type submitResponseBody struct {
	RequestID uuid.UUID      `json:"request_id" validate:"required"`
	Notes     *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items     []responseItem `json:"items" validate:"required,min=1,dive"`
}

type updateResponseBody struct {
	Notes *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items []responseItem `json:"items" validate:"required,min=1,dive"`
}

type acceptBody struct {
	ResponseID uuid.UUID `json:"response_id" validate:"required"`
	Notes      *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (b submitRequestBody) toInput(actor pkgAuth.Principal) quotations.SubmitRequestInput {
	items := make([]quotations.RequestItemInput, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, quotations.RequestItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Specification: item.Specification,
		})
	}
	return quotations.SubmitRequestInput{
		CustomerID:      actor.ID,
		ActorUserID:     actor.UserID,
		RequiredBy:      b.RequiredBy,
		DeliveryAddress: b.DeliveryAddress,
		ContactPhone:    b.ContactPhone,
		Notes:           b.Notes,
		Items:           items,
	}
}

func toResponseItems(items []responseItem) []quotations.ResponseItemInput {
	out := make([]quotations.ResponseItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, quotations.ResponseItemInput{
			ProductID:    item.ProductID,
			UnitPrice:    item.UnitPrice,
			Stock:        item.Stock,
			DeliveryDays: item.DeliveryDays,
			Quantity:     item.Quantity,
		})
	}
	return out
}
