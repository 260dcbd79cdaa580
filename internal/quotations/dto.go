package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

type RequestItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	Specification *string
}

// SubmitRequestInput is a customer's ask for quotes. RequiredBy defaults to
// the configured horizon when nil.
type SubmitRequestInput struct {
	CustomerID      uuid.UUID
	ActorUserID     uuid.UUID
	RequiredBy      *time.Time
	DeliveryAddress string
	ContactPhone    string
	Notes           *string
	Items           []RequestItemInput
}

type ResponseItemInput struct {
	ProductID    uuid.UUID
	UnitPrice    decimal.Decimal
	Stock        int
	DeliveryDays int
	Quantity     int
}

type SubmitResponseInput struct {
	RequestID     uuid.UUID
	DistributorID uuid.UUID
	ActorUserID   uuid.UUID
	Notes         *string
	Items         []ResponseItemInput
}

// UpdateResponseInput replaces every line of a submitted response.
type UpdateResponseInput struct {
	Notes *string
	Items []ResponseItemInput
}

type AcceptInput struct {
	ResponseID uuid.UUID
	Notes      *string
}

type RequestFilters struct {
	Status *enums.QuotationRequestStatus
}

type ResponseFilters struct {
	RequestID *uuid.UUID
	Status    *enums.QuotationResponseStatus
}

type RequestItemDTO struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku,omitempty"`
	ProductName   string    `json:"product_name,omitempty"`
	Quantity      int       `json:"quantity"`
	Specification *string   `json:"specification,omitempty"`
}

type ResponseItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	SKU          string          `json:"sku,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Stock        int             `json:"stock"`
	DeliveryDays int             `json:"delivery_days"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type ResponseDTO struct {
	ID                  uuid.UUID                     `json:"id"`
	RequestID           uuid.UUID                     `json:"request_id"`
	DistributorID       uuid.UUID                     `json:"distributor_id"`
	DistributorName     string                        `json:"distributor_name,omitempty"`
	Status              enums.QuotationResponseStatus `json:"status"`
	TotalPrice          decimal.Decimal               `json:"total_price"`
	AverageDeliveryDays decimal.Decimal               `json:"average_delivery_days"`
	Notes               *string                       `json:"notes,omitempty"`
	SubmittedAt         time.Time                     `json:"submitted_at"`
	Items               []ResponseItemDTO             `json:"items"`
}

type RequestDTO struct {
	ID              uuid.UUID                    `json:"id"`
	CustomerID      uuid.UUID                    `json:"customer_id"`
	Status          enums.QuotationRequestStatus `json:"status"`
	Notes           *string                      `json:"notes,omitempty"`
	RequiredBy      time.Time                    `json:"required_by"`
	DeliveryAddress string                       `json:"delivery_address"`
	ContactPhone    string                       `json:"contact_phone"`
	CreatedAt       time.Time                    `json:"created_at"`
	Items           []RequestItemDTO             `json:"items"`
	Responses       []ResponseDTO                `json:"responses,omitempty"`
	ResponseCount   int                          `json:"response_count"`
}

type RequestList struct {
	Requests   []RequestDTO `json:"requests"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type ResponseList struct {
	Responses  []ResponseDTO `json:"responses"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ResponseSummary is one column of the comparison table.
type ResponseSummary struct {
	ResponseID          uuid.UUID                     `json:"response_id"`
	DistributorID       uuid.UUID                     `json:"distributor_id"`
	DistributorName     string                        `json:"distributor_name,omitempty"`
	Status              enums.QuotationResponseStatus `json:"status"`
	TotalPrice          decimal.Decimal               `json:"total_price"`
	AverageDeliveryDays decimal.Decimal               `json:"average_delivery_days"`
	IsBestPrice         bool                          `json:"is_best_price"`
	IsFastest           bool                          `json:"is_fastest"`
}

// Comparison aggregates every live response to a request. Price and delivery
// figures are zero when ResponseCount is zero.
type Comparison struct {
	RequestID        uuid.UUID         `json:"request_id"`
	Items            []RequestItemDTO  `json:"items"`
	Responses        []ResponseSummary `json:"responses"`
	BestPrice        decimal.Decimal   `json:"best_price"`
	WorstPrice       decimal.Decimal   `json:"worst_price"`
	AveragePrice     decimal.Decimal   `json:"average_price"`
	BestDeliveryDays decimal.Decimal   `json:"best_delivery_days"`
	ResponseCount    int               `json:"response_count"`
}

type AcceptResult struct {
	RequestID     uuid.UUID        `json:"request_id"`
	ResponseID    uuid.UUID        `json:"response_id"`
	RejectedCount int64            `json:"rejected_count"`
	Order         *orders.OrderDTO `json:"order"`
}

// QuotationRequestedEvent is the outbox payload for quotation_requested.
type QuotationRequestedEvent struct {
	RequestID  uuid.UUID   `json:"request_id"`
	CustomerID uuid.UUID   `json:"customer_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
	RequiredBy time.Time   `json:"required_by"`
}

type QuotationRequestCancelledEvent struct {
	RequestID          uuid.UUID `json:"request_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	CancelledResponses int64     `json:"cancelled_responses"`
}

// QuotationResponseEvent is shared by responded, updated and withdrawn.
type QuotationResponseEvent struct {
	ResponseID    uuid.UUID                     `json:"response_id"`
	RequestID     uuid.UUID                     `json:"request_id"`
	DistributorID uuid.UUID                     `json:"distributor_id"`
	Status        enums.QuotationResponseStatus `json:"status"`
	TotalPrice    decimal.Decimal               `json:"total_price"`
}

type QuotationAcceptedEvent struct {
	RequestID     uuid.UUID       `json:"request_id"`
	ResponseID    uuid.UUID       `json:"response_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	DistributorID uuid.UUID       `json:"distributor_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	RejectedCount int64           `json:"rejected_count"`
}

func toRequestItemDTO(item models.QuotationRequestItem) RequestItemDTO {
	dto := RequestItemDTO{
		ID:            item.ID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		Specification: item.Specification,
	}
	if item.Product != nil {
		dto.SKU = item.Product.SKU
		dto.ProductName = item.Product.Name
	}
	return dto
}

func toRequestDTO(row models.QuotationRequest, responses []models.QuotationResponse) RequestDTO {
	dto := RequestDTO{
		ID:              row.ID,
		CustomerID:      row.CustomerID,
		Status:          row.Status,
		Notes:           row.Notes,
		RequiredBy:      row.RequiredBy,
		DeliveryAddress: row.DeliveryAddress,
		ContactPhone:    row.ContactPhone,
		CreatedAt:       row.CreatedAt,
		Items:           make([]RequestItemDTO, 0, len(row.Items)),
		ResponseCount:   len(row.Responses),
	}
	for _, item := range row.Items {
		dto.Items = append(dto.Items, toRequestItemDTO(item))
	}
	if len(responses) > 0 {
		dto.Responses = make([]ResponseDTO, 0, len(responses))
		for _, resp := range responses {
			dto.Responses = append(dto.Responses, toResponseDTO(resp))
		}
	}
	return dto
}

func toResponseDTO(row models.QuotationResponse) ResponseDTO {
	dto := ResponseDTO{
		ID:                  row.ID,
		RequestID:           row.QuotationRequestID,
		DistributorID:       row.DistributorID,
		Status:              row.Status,
		TotalPrice:          row.TotalPrice,
		AverageDeliveryDays: averageDeliveryDays(row.Items),
		Notes:               row.Notes,
		SubmittedAt:         row.SubmittedAt,
		Items:               make([]ResponseItemDTO, 0, len(row.Items)),
	}
	if row.Distributor != nil {
		dto.DistributorName = row.Distributor.CompanyName
	}
	for _, item := range row.Items {
		itemDTO := ResponseItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			UnitPrice:    item.UnitPrice,
			Stock:        item.Stock,
			DeliveryDays: item.DeliveryDays,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
		}
		if item.Product != nil {
			itemDTO.SKU = item.Product.SKU
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
	}
	return dto
}
