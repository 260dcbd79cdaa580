package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/pkg/enums"
)

var fulfilmentSteps = []enums.OrderStatus{
	enums.OrderStatusConfirmed,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
}

type ordersPage struct {
	Orders  []orders.OrderDTO
	Status  string
	NextURL string
}

type orderPage struct {
	Order     *orders.OrderDTO
	CanCancel bool
	NextSteps []enums.OrderStatus
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	status := r.URL.Query().Get("status")

	var list *orders.OrderList
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		list, callErr = s.api.Orders(ctx, token, status, r.URL.Query().Get("cursor"))
		return callErr
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}
	page := ordersPage{Orders: list.Orders, Status: status}
	if list.NextCursor != "" {
		next := url.Values{"cursor": {list.NextCursor}}
		if status != "" {
			next.Set("status", status)
		}
		page.NextURL = "/orders?" + next.Encode()
	}
	s.render(w, r, sess, http.StatusOK, "orders", "Orders", page)
}

func (s *Server) showOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()

	var order *orders.OrderDTO
	err := s.withToken(ctx, sess, func(token string) error {
		var callErr error
		order, callErr = s.api.Order(ctx, token, chi.URLParam(r, "orderID"))
		return callErr
	})
	if err != nil {
		s.failPage(w, r, sess, err)
		return
	}

	page := orderPage{Order: order, CanCancel: !order.Status.IsTerminal()}
	if sess.HasRole(enums.UserRoleDistributor, enums.UserRoleAdmin) {
		for _, step := range fulfilmentSteps {
			if order.Status.CanTransitionTo(step) {
				page.NextSteps = append(page.NextSteps, step)
			}
		}
	}
	s.render(w, r, sess, http.StatusOK, "order", "Order", page)
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")
	back := "/orders/" + orderID

	key := idempotencyKey(r)
	err := s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.CancelOrder(ctx, token, key, orderID)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", "Order cancelled. Reserved stock was returned.")
	s.redirect(w, r, sess, back)
}

func (s *Server) advanceOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ctx := r.Context()
	orderID := chi.URLParam(r, "orderID")
	back := "/orders/" + orderID

	status, err := enums.ParseOrderStatus(r.PostFormValue("status"))
	if err != nil {
		sess.AddFlash("error", "Choose a valid order status.")
		s.redirect(w, r, sess, back)
		return
	}

	key := idempotencyKey(r)
	err = s.withToken(ctx, sess, func(token string) error {
		_, callErr := s.api.AdvanceOrder(ctx, token, key, orderID, status)
		return callErr
	})
	if err != nil {
		s.fail(w, r, sess, err, back)
		return
	}
	sess.AddFlash("success", fmt.Sprintf("Order marked %s.", status))
	s.redirect(w, r, sess, back)
}
