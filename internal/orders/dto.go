package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// LineInput is one requested order line. UnitPrice, when set, overrides the
// current inventory price (quoted prices from an accepted response).
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateInput describes an order for one customer and one distributor.
type CreateInput struct {
	CustomerID            uuid.UUID
	DistributorID         uuid.UUID
	QuotationResponseID   *uuid.UUID
	Notes                 *string
	DeliveryAddress       *string
	EstimatedDeliveryDays *int
	Items                 []LineInput
	ActorUserID           uuid.UUID
	ActorRole             enums.UserRole
}

// ListFilters narrow an order list.
type ListFilters struct {
	Status *enums.OrderStatus
}

type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderDTO struct {
	ID                    uuid.UUID         `json:"id"`
	CustomerID            uuid.UUID         `json:"customer_id"`
	DistributorID         uuid.UUID         `json:"distributor_id"`
	QuotationResponseID   *uuid.UUID        `json:"quotation_response_id,omitempty"`
	Status                enums.OrderStatus `json:"status"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	Notes                 *string           `json:"notes,omitempty"`
	DeliveryAddress       *string           `json:"delivery_address,omitempty"`
	EstimatedDeliveryDays *int              `json:"estimated_delivery_days,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	CancelledAt           *time.Time        `json:"cancelled_at,omitempty"`
	DeliveredAt           *time.Time        `json:"delivered_at,omitempty"`
	Items                 []ItemDTO         `json:"items"`
}

type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderCreatedEvent is the outbox payload for order_created.
type OrderCreatedEvent struct {
	OrderID             uuid.UUID       `json:"order_id"`
	CustomerID          uuid.UUID       `json:"customer_id"`
	DistributorID       uuid.UUID       `json:"distributor_id"`
	QuotationResponseID *uuid.UUID      `json:"quotation_response_id,omitempty"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	ItemCount           int             `json:"item_count"`
}

// OrderCanceledEvent is the outbox payload for order_canceled.
type OrderCanceledEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	DistributorID  uuid.UUID         `json:"distributor_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	CancelledBy    enums.UserRole    `json:"cancelled_by"`
}

// OrderStatusChangedEvent is the outbox payload for order_status_changed.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	DistributorID uuid.UUID         `json:"distributor_id"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
}

func toOrderDTO(row models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                    row.ID,
		CustomerID:            row.CustomerID,
		DistributorID:         row.DistributorID,
		QuotationResponseID:   row.QuotationResponseID,
		Status:                row.Status,
		TotalAmount:           row.TotalAmount,
		Notes:                 row.Notes,
		DeliveryAddress:       row.DeliveryAddress,
		EstimatedDeliveryDays: row.EstimatedDeliveryDays,
		CreatedAt:             row.CreatedAt,
		CancelledAt:           row.CancelledAt,
		DeliveredAt:           row.DeliveredAt,
		Items:                 make([]ItemDTO, 0, len(row.Items)),
	}
	for _, item := range row.Items {
		itemDTO := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
		if item.Product != nil {
			itemDTO.SKU = item.Product.SKU
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
