package cart

import (
	"net/http"

	"github.com/partsbridge/marketplace/api/controllers"
	"github.com/partsbridge/marketplace/api/validators"
	cartsvc "github.com/partsbridge/marketplace/internal/cart"
	pkgAuth "github.com/partsbridge/marketplace/pkg/auth"
	"github.com/partsbridge/marketplace/pkg/logger"
)

func endpoint(svc cartsvc.Service, logg *logger.Logger, status int, act controllers.CallerAction) http.HandlerFunc {
	if svc == nil {
		return controllers.Unavailable(logg, "cart")
	}
	return controllers.ForCaller(logg, status, act)
}

// CartFetch returns the caller's cart priced at current offers.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		return svc.Get(r.Context(), caller.ID)
	})
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), caller.ID, body.toLine())
	})
}

func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetQuantity(r.Context(), caller.ID, itemID, body.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), caller.ID, itemID)
	})
}

// CartMerge folds the web tier's guest cart into the caller's cart.
func CartMerge(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusOK, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body mergeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Merge(r.Context(), caller.ID, body.toLines())
	})
}

// CartCheckout splits the cart into one order per distributor.
func CartCheckout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return endpoint(svc, logg, http.StatusCreated, func(r *http.Request, caller pkgAuth.Principal) (any, error) {
		var body checkoutRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Checkout(r.Context(), caller, cartsvc.CheckoutInput{
			Notes:           body.Notes,
			DeliveryAddress: body.DeliveryAddress,
		})
	})
}
