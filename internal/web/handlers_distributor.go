package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/partsbridge/marketplace/internal/admin"
	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/quotations"
)

type responsesPage struct {
	Responses []quotations.ResponseDTO
	Status    string
}

type inventoryPage struct {
	Items    []inventory.Item
	Products []catalog.ProductSummary
}

func (s *Server) listResponses(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	status := r.URL.Query().Get("status")

	var list *quotations.ResponseList
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		list, callErr = s.api.QuotationResponses(ctx, token, "", status)
		return callErr
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	s.render(w, r, sess, http.StatusOK, "responses", "My quotations", responsesPage{Responses: list.Responses, Status: status})
}

func (s *Server) withdrawResponse(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	key := idempotencyKey(r)
	err := s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.WithdrawQuotationResponse(ctx, token, key, chi.URLParam(r, "responseID"))
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/responses")
		return
	}
	sess.AddFlash("success", "Quotation withdrawn.")
	s.redirect(w, r, sess, "/responses")
}

func (s *Server) showInventory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	var page inventoryPage
	err := s.withToken(ctx, sess, func(token string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			items, callErr := s.api.Inventory(gctx, token)
			page.Items = items
			return callErr
		})
		g.Go(func() error {
			products, callErr := s.api.Products(gctx, ProductQuery{Limit: 100})
			if callErr == nil {
				page.Products = products.Products
			}
			return callErr
		})
		return g.Wait()
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	s.render(w, r, sess, http.StatusOK, "inventory", "Inventory", page)
}

func (s *Server) upsertInventory(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	productID := strings.TrimSpace(r.PostFormValue("product_id"))
	price, err := decimal.NewFromString(strings.TrimSpace(r.PostFormValue("price")))
	if productID == "" || err != nil {
		sess.AddFlash("error", "Choose a product and enter a price.")
		s.redirect(w, r, sess, "/inventory")
		return
	}
	stock, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("stock")))
	if err != nil {
		sess.AddFlash("error", "Stock must be a whole number.")
		s.redirect(w, r, sess, "/inventory")
		return
	}
	days, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("delivery_days")))
	if err != nil {
		sess.AddFlash("error", "Delivery days must be a whole number.")
		s.redirect(w, r, sess, "/inventory")
		return
	}
	active := r.PostFormValue("is_active") != ""
	form := InventoryForm{Price: price, Stock: stock, DeliveryDays: days, IsActive: &active}

	key := idempotencyKey(r)
	err = s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.UpsertInventory(ctx, token, key, productID, form)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, "/inventory")
		return
	}
	sess.AddFlash("success", "Offer saved.")
	s.redirect(w, r, sess, "/inventory")
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	var board *admin.Dashboard
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		board, callErr = s.api.Dashboard(ctx, token)
		return callErr
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	s.render(w, r, sess, http.StatusOK, "dashboard", "Dashboard", board)
}
