package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/partsbridge/marketplace/internal/cart"
)

type addItemRequest struct {
	DistributorID uuid.UUID `json:"distributor_id" validate:"required"`
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"gte=1"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

// mergeRequest carries the guest cart kept by the web tier.
type mergeRequest struct {
	Items []addItemRequest `json:"items" validate:"dive"`
}

type checkoutRequest struct {
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryAddress *string `json:"delivery_address,omitempty" validate:"omitempty,max=500"`
}

func (r addItemRequest) toLine() cartsvc.LineInput {
	return cartsvc.LineInput{
		DistributorID: r.DistributorID,
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
	}
}

func (r mergeRequest) toLines() []cartsvc.LineInput {
	lines := make([]cartsvc.LineInput, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, item.toLine())
	}
	return lines
}
