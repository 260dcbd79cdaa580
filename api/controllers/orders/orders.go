package orders

import (
	"net/http"

	"github.com/partsbridge/marketplace/api/controllers"
	"github.com/partsbridge/marketplace/api/validators"
	internalorders "github.com/partsbridge/marketplace/internal/orders"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func endpoint(svc internalorders.Service, logg *logger.Logger, status int, act controllers.CallerAction) http.HandlerFunc {
	if svc == nil {
		return controllers.Unavailable(logg, "orders")
	}
	return controllers.ForCaller(logg, status, act)
}

// Create places a direct order for the calling customer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusCreated, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Create(r.Context(), body.toInput(caller))
	})
}

// List pages through the orders the caller's role may see. Query: status,
// limit, cursor.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		status, err := controllers.StatusFilter(r, enums.ParseOrderStatus)
		if err != nil {
			return nil, err
		}
		return svc.List(r.Context(), caller, internalorders.ListFilters{Status: status}, page)
	})
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), caller, orderID)
	})
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.Cancel(r.Context(), caller, orderID)
	})
}

// AdvanceStatus moves an order one step along its fulfilment path.
func AdvanceStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.AdvanceStatus(r.Context(), caller, orderID, body.Status)
	})
}
