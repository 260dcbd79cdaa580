package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/api/validators"
	"github.com/partsbridge/marketplace/internal/inventory"
	pkgerrors "github.com/partsbridge/marketplace/pkg/errors"
	"github.com/partsbridge/marketplace/pkg/logger"
)

type inventoryRequest struct {
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	DeliveryDays int             `json:"delivery_days" validate:"gte=1"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// ListInventory returns the calling distributor's offers.
func ListInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		principal, err := RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// UpsertInventory sets the calling distributor's offer for one product.
func UpsertInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		principal, err := RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Upsert(r.Context(), inventory.UpsertInput{
			DistributorID: principal.ID,
			ProductID:     productID,
			Price:         body.Price,
			Stock:         body.Stock,
			DeliveryDays:  body.DeliveryDays,
			IsActive:      body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
