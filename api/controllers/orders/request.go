package orders

import (
	"github.com/google/uuid"

	internalorders "github.com/partsbridge/marketplace/internal/orders"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

// createOrderRequest places a direct order with one distributor at current
// inventory prices.
type createOrderRequest struct {
	DistributorID   uuid.UUID          `json:"distributor_id" validate:"required"`
	Items           []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Notes           *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryAddress *string            `json:"delivery_address,omitempty" validate:"omitempty,max=500"`
}

type statusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

func (r createOrderRequest) toInput(actor pkgAuth.Principal) internalorders.CreateInput {
	items := make([]internalorders.LineInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, internalorders.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return internalorders.CreateInput{
		CustomerID:      actor.ID,
		DistributorID:   r.DistributorID,
		Notes:           r.Notes,
		DeliveryAddress: r.DeliveryAddress,
		Items:           items,
		ActorUserID:     actor.UserID,
		ActorRole:       actor.Role,
	}
}
