package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/grocer-backend/api/controllers"
	"github.com/angelmondragon/grocer-backend/api/middleware"
	"github.com/angelmondragon/grocer-backend/internal/address"
	"github.com/angelmondragon/grocer-backend/internal/auth"
	"github.com/angelmondragon/grocer-backend/internal/cart"
	"github.com/angelmondragon/grocer-backend/internal/categories"
	"github.com/angelmondragon/grocer-backend/internal/checkout"
	"github.com/angelmondragon/grocer-backend/internal/items"
	"github.com/angelmondragon/grocer-backend/internal/supermarkets"
	"github.com/angelmondragon/grocer-backend/pkg/config"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/redis"
)

// Deps holds everything the router wires into handlers. Nil services answer
// with an internal error; a nil Redis disables rate limiting and idempotency.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	Health  map[string]controllers.Pinger
	Metrics prometheus.Gatherer

	Auth         auth.Service
	Supermarkets supermarkets.Service
	Categories   categories.Service
	Items        items.Service
	Cart         cart.Service
	Checkout     checkout.Service
	Address      address.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	rateLimit := func(policy middleware.RateLimitPolicy) func(http.Handler) http.Handler {
		if deps.Redis == nil {
			return passthrough
		}
		return middleware.RateLimit(policy, deps.Redis, logg)
	}
	// Applied per route with With so the chi route pattern is resolved
	// before the middleware runs.
	idempotency := passthrough
	if deps.Redis != nil {
		idempotency = middleware.Idempotency(deps.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit(loginPolicy)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(rateLimit(registerPolicy), idempotency).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		})

		r.Get("/addresses/autocomplete", controllers.AddressAutocomplete(deps.Address, logg))
		r.Get("/addresses/geocode", controllers.AddressGeocode(deps.Address, logg))

		r.Get("/supermarkets", controllers.ListSupermarkets(deps.Supermarkets, logg))
		r.Route("/supermarkets/{supermarketId}", func(r chi.Router) {
			r.Get("/", controllers.GetSupermarket(deps.Supermarkets, logg))

			r.Get("/categories", controllers.ListCategories(deps.Categories, logg))
			r.Get("/categories/tree", controllers.CategoryTree(deps.Categories, logg))
			r.Get("/categories/{categoryId}", controllers.GetCategory(deps.Categories, logg))

			r.Get("/items", controllers.ListItems(deps.Items, logg))
			r.Get("/items/{itemId}", controllers.GetItem(deps.Items, logg))

			r.Route("/cart/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.Cart, logg))
			})

			r.Post("/checkout/quote", controllers.CheckoutQuote(deps.Checkout, logg))
			r.With(idempotency).Post("/checkout/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireOperator(logg))

			r.Get("/supermarkets", controllers.DashboardListSupermarkets(deps.Supermarkets, logg))
			r.With(idempotency).Post("/supermarkets", controllers.DashboardCreateSupermarket(deps.Supermarkets, logg))
			r.Route("/supermarkets/{supermarketId}", func(r chi.Router) {
				r.Patch("/", controllers.DashboardUpdateSupermarket(deps.Supermarkets, logg))

				r.With(idempotency).Post("/categories", controllers.DashboardCreateCategory(deps.Categories, logg))
				r.Patch("/categories/{categoryId}", controllers.DashboardUpdateCategory(deps.Categories, logg))
				r.Post("/categories/{categoryId}/move", controllers.DashboardMoveCategory(deps.Categories, logg))
				r.Delete("/categories/{categoryId}", controllers.DashboardDeleteCategory(deps.Categories, logg))

				r.Get("/items", controllers.DashboardListItems(deps.Items, logg))
				r.With(idempotency).Post("/items", controllers.DashboardCreateItem(deps.Items, logg))
				r.Patch("/items/{itemId}", controllers.DashboardUpdateItem(deps.Items, logg))
				r.Delete("/items/{itemId}", controllers.DashboardDeleteItem(deps.Items, logg))
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
