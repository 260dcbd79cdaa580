package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partsbridge/marketplace/api/controllers"
	cartcontrollers "github.com/partsbridge/marketplace/api/controllers/cart"
	ordercontrollers "github.com/partsbridge/marketplace/api/controllers/orders"
	quotationcontrollers "github.com/partsbridge/marketplace/api/controllers/quotations"
	"github.com/partsbridge/marketplace/api/middleware"
	"github.com/partsbridge/marketplace/internal/admin"
	"github.com/partsbridge/marketplace/internal/auth"
	"github.com/partsbridge/marketplace/internal/cart"
	"github.com/partsbridge/marketplace/internal/catalog"
	"github.com/partsbridge/marketplace/internal/inventory"
	"github.com/partsbridge/marketplace/internal/orders"
	"github.com/partsbridge/marketplace/internal/quotations"
	"github.com/partsbridge/marketplace/pkg/config"
	"github.com/partsbridge/marketplace/pkg/enums"
	"github.com/partsbridge/marketplace/pkg/logger"
	"github.com/partsbridge/marketplace/pkg/metrics"
	"github.com/partsbridge/marketplace/pkg/redis"
)

// Deps carries everything the API router mounts. A nil Redis disables
// idempotency and auth rate limiting.
type Deps struct {
	DB          controllers.Pinger
	Redis       *redis.Client
	Credentials middleware.CredentialResolver
	Gatherer    prometheus.Gatherer
	Metrics     *metrics.HTTPMetrics

	Auth       auth.Service
	Register   auth.RegisterService
	Catalog    catalog.Service
	Inventory  inventory.Service
	Cart       cart.Service
	Orders     orders.Service
	Quotations quotations.Service
	Admin      admin.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.SecureHeaders(cfg.App.IsDev(), false),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	readiness := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)
	authLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if deps.Redis == nil {
			return passthrough
		}
		return middleware.AuthRateLimit(policy, deps.Redis, logg)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authLimit(loginPolicy)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(authLimit(registerPolicy)).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Catalog, logg))
	})

	// Dev-only admin bootstrap, mounted before the authenticated /api tree.
	if cfg.App.IsNonProduction() {
		r.With(authLimit(registerPolicy)).Post("/api/admin/auth/register", controllers.AdminAuthRegister(deps.Register, logg))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Credentials, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit.APIRequestsPerMin, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		customer := middleware.RequireRole(logg, enums.UserRoleCustomer)
		distributor := middleware.RequireRole(logg, enums.UserRoleDistributor)
		fulfilment := middleware.RequireRole(logg, enums.UserRoleDistributor, enums.UserRoleAdmin)
		requester := middleware.RequireRole(logg, enums.UserRoleCustomer, enums.UserRoleAdmin)

		r.Route("/cart", func(r chi.Router) {
			r.Use(customer)
			r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{itemId}", cartcontrollers.CartSetQuantity(deps.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			r.Post("/merge", cartcontrollers.CartMerge(deps.Cart, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(customer).Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.With(fulfilment).Post("/{orderId}/status", ordercontrollers.AdvanceStatus(deps.Orders, logg))
		})

		r.Route("/quotation", func(r chi.Router) {
			r.With(customer).Post("/request", quotationcontrollers.SubmitRequest(deps.Quotations, logg))
			r.Get("/requests", quotationcontrollers.ListRequests(deps.Quotations, logg))
			r.Get("/request/{requestId}", quotationcontrollers.GetRequest(deps.Quotations, logg))
			r.With(requester).Post("/request/{requestId}/cancel", quotationcontrollers.CancelRequest(deps.Quotations, logg))
			r.With(distributor).Post("/response", quotationcontrollers.SubmitResponse(deps.Quotations, logg))
			r.With(distributor).Put("/response/{responseId}", quotationcontrollers.UpdateResponse(deps.Quotations, logg))
			r.With(distributor).Post("/response/{responseId}/withdraw", quotationcontrollers.WithdrawResponse(deps.Quotations, logg))
			r.Get("/responses", quotationcontrollers.ListResponses(deps.Quotations, logg))
			r.Get("/comparison/{requestId}", quotationcontrollers.Compare(deps.Quotations, logg))
			r.With(customer).Post("/accept", quotationcontrollers.Accept(deps.Quotations, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(distributor)
			r.Get("/", controllers.ListInventory(deps.Inventory, logg))
			r.Put("/{productId}", controllers.UpsertInventory(deps.Inventory, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Post("/categories", controllers.AdminCreateCategory(deps.Catalog, logg))
			r.Put("/categories/{categoryId}", controllers.AdminUpdateCategory(deps.Catalog, logg))
			r.Post("/products", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Put("/products/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Get("/dashboard", controllers.AdminDashboard(deps.Admin, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
