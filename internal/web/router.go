package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/api/responses"
	"github.com/partsbridge/marketplace/pkg/enums"
)

// Routes mounts every page and form action. isDev relaxes HSTS.
func (s *Server) Routes(isDev bool) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(s.logg),
		middleware.RequestID(s.logg),
		middleware.Logging(s.logg),
		middleware.SecureHeaders(isDev, true),
	)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.loadSession, s.verifyCSRF)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/products", http.StatusFound)
		})
		r.Get("/products", s.listProducts)
		r.Get("/products/{productID}", s.showProduct)

		r.Get("/login", s.loginForm)
		r.Post("/login", s.login)
		r.Get("/register", s.registerForm)
		r.Post("/register", s.register)
		r.Post("/logout", s.logout)

		// Guests keep their cart in the session; customers use the API cart.
		r.Get("/cart", s.showCart)
		r.Post("/cart/items", s.addToCart)
		r.Post("/cart/items/{itemKey}/quantity", s.updateCartItem)
		r.Post("/cart/items/{itemKey}/remove", s.removeCartItem)
		r.Post("/cart/checkout", s.checkout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole())
			r.Get("/orders", s.listOrders)
			r.Get("/orders/{orderID}", s.showOrder)
			r.Post("/orders/{orderID}/cancel", s.cancelOrder)
			r.With(s.requireRole(enums.UserRoleDistributor, enums.UserRoleAdmin)).Post("/orders/{orderID}/status", s.advanceOrder)

			r.Get("/quotations", s.listQuotations)
			r.Get("/quotations/{requestID}", s.showQuotation)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(enums.UserRoleCustomer))
			r.Get("/quotations/new", s.newQuotation)
			r.Post("/quotations", s.createQuotation)
			r.Post("/quotations/{requestID}/cancel", s.cancelQuotation)
			r.Post("/quotations/{requestID}/accept", s.acceptQuotation)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(enums.UserRoleDistributor))
			r.Post("/quotations/{requestID}/respond", s.respondQuotation)
			r.Get("/responses", s.listResponses)
			r.Post("/responses/{responseID}/withdraw", s.withdrawResponse)
			r.Get("/inventory", s.showInventory)
			r.Post("/inventory", s.upsertInventory)
		})

		r.With(s.requireRole(enums.UserRoleAdmin)).Get("/admin", s.dashboard)
	})

	return r
}
