package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// guestLine is a guest cart line priced from the public catalog.
type guestLine struct {
	Key             string
	ProductID       uuid.UUID
	ProductName     string
	SKU             string
	DistributorName string
	Quantity        int
	UnitPrice       *decimal.Decimal
	LineTotal       *decimal.Decimal
	Available       bool
}

type cartPage struct {
	Guest      bool
	Cart       *cart.CartDTO
	GuestLines []guestLine
	Subtotal   decimal.Decimal
}

func (s *Server) showCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	if sess.SignedIn() {
		if !sess.HasRole(enums.UserRoleCustomer) {
			s.renderError(w, r, sess, http.StatusForbidden, "Only customer accounts have a cart.")
			return
		}
		var current *cart.CartDTO
		err := s.withToken(ctx, sess, func(token string) error {
			var callErr error
			current, callErr = s.api.Cart(ctx, token)
			return callErr
		})
		if err != nil {
			s.failPage(w, r, sess, err)
			return
		}
		s.render(w, r, sess, http.StatusOK, "cart", "Cart", cartPage{Cart: current, Subtotal: current.Subtotal})
		return
	}

	lines := s.priceGuestCart(r, sess.GuestCart)
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.LineTotal != nil {
			subtotal = subtotal.Add(*line.LineTotal)
		}
	}
	s.render(w, r, sess, http.StatusOK, "cart", "Cart", cartPage{Guest: true, GuestLines: lines, Subtotal: subtotal})
}

// priceGuestCart looks every guest line up in the catalog. Lines whose product
// or offer is gone are shown as unavailable.
func (s *Server) priceGuestCart(r *http.Request, input []cart.LineInput) []guestLine {
	lines := make([]guestLine, len(input))
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, in := range input {
		lines[i] = guestLine{Key: guestLineKey(in), ProductID: in.ProductID, Quantity: in.Quantity}
		g.Go(func() error {
			product, err := s.api.Product(gctx, in.ProductID.String())
			if err != nil {
				return nil
			}
			line := &lines[i]
			line.ProductName = product.Name
			line.SKU = product.SKU
			for _, offer := range product.Offers {
				if offer.DistributorID != in.DistributorID {
					continue
				}
				price := offer.Price
				total := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
				line.DistributorName = offer.DistributorName
				line.UnitPrice = &price
				line.LineTotal = &total
				line.Available = offer.Stock >= in.Quantity
			}
			return nil
		})
	}
	_ = g.Wait()
	return lines
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	back := backTo(r, "/products")

	line, err := parseCartLine(r)
	if err != nil {
		sess.AddFlash("error", err.Error())
		s.redirect(w, r, sess, back)
		return
	}

	if !sess.SignedIn() {
		sess.AddGuestLine(line)
		sess.AddFlash("success", "Added to your cart.")
		s.redirect(w, r, sess, back)
		return
	}
	if !sess.HasRole(enums.UserRoleCustomer) {
		sess.AddFlash("error", "Only customer accounts can buy parts.")
		s.redirect(w, r, sess, back)
		return
	}

	key := idempotencyKey(r)
	err = s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.AddCartItem(ctx, token, key, line)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", "Added to your cart.")
	s.redirect(w, r, sess, back)
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	itemKey := chi.URLParam(r, "itemKey")

	qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		sess.AddFlash("error", "Quantity must be a whole number.")
		s.redirect(w, r, sess, "/cart")
		return
	}

	if !sess.SignedIn() {
		if !sess.SetGuestQuantity(itemKey, qty) {
			sess.AddFlash("error", "That item is no longer in your cart.")
		}
		s.redirect(w, r, sess, "/cart")
		return
	}

	key := idempotencyKey(r)
	err = s.withToken(ctx, sess, func(token string) error {
		var callErr error
		if qty < 1 {
			_, callErr = s.api.RemoveCartItem(ctx, token, key, itemKey)
		} else {
			_, callErr = s.api.SetCartQuantity(ctx, token, key, itemKey, qty)
		}
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/cart")
		return
	}
	s.redirect(w, r, sess, "/cart")
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	itemKey := chi.URLParam(r, "itemKey")

	if !sess.SignedIn() {
		sess.SetGuestQuantity(itemKey, 0)
		s.redirect(w, r, sess, "/cart")
		return
	}

	key := idempotencyKey(r)
	err := s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.RemoveCartItem(ctx, token, key, itemKey)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/cart")
		return
	}
	s.redirect(w, r, sess, "/cart")
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	if !sess.SignedIn() {
		sess.AddFlash("info", "Sign in with a customer account to check out. Your cart will be kept.")
		s.redirect(w, r, sess, "/login?next=%2Fcart")
		return
	}

	form := CheckoutForm{
		Notes:           optionalField(r, "notes"),
		DeliveryAddress: optionalField(r, "delivery_address"),
	}
	key := idempotencyKey(r)
	var result *cart.CheckoutResult
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		result, callErr = s.api.Checkout(ctx, token, key, form)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/cart")
		return
	}
	sess.AddFlash("success", fmt.Sprintf("Checkout complete: %d order(s) totalling $%s.", len(result.Orders), result.Total.StringFixed(2)))
	s.redirect(w, r, sess, "/orders")
}

func parseCartLine(r *http.Request) (cart.LineInput, error) {
	distributorID, err := uuid.Parse(r.PostFormValue("distributor_id"))
	if err != nil {
		return cart.LineInput{}, formError("Choose a distributor offer.")
	}
	productID, err := uuid.Parse(r.PostFormValue("product_id"))
	if err != nil {
		return cart.LineInput{}, formError("Unknown product.")
	}
	qty := 1
	if raw := strings.TrimSpace(r.PostFormValue("quantity")); raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil || qty < 1 {
			return cart.LineInput{}, formError("Quantity must be at least 1.")
		}
	}
	return cart.LineInput{DistributorID: distributorID, ProductID: productID, Quantity: qty}, nil
}

// formError is a form problem whose text is shown to the user as is.
type formError string

func (e formError) Error() string { return string(e) }
