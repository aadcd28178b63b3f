package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/newsletter"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs from cmd/api.
type Dependencies struct {
	DB             controllers.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	Gatherer       prometheus.Gatherer
	HTTPMetrics    *metrics.HTTPMetrics
	AuthService    auth.Service
	ProductService product.Service
	CartService    cart.Service
	OrderService   orders.Service
	Newsletter     newsletter.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	// a nil *redis.Client must stay a nil interface so the middlewares skip it
	var (
		idemStore  middleware.IdempotencyStore
		limitStore middleware.RateLimitStore
		readyDeps  = map[string]controllers.Pinger{"db": deps.DB, "redis": nil}
	)
	if deps.Redis != nil {
		idemStore = deps.Redis
		limitStore = deps.Redis
		readyDeps["redis"] = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(idemStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limitStore, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limitStore, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(deps.AuthService, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
		})

		r.Get("/products", controllers.ProductList(deps.ProductService, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.ProductService, logg))
		r.Get("/categories", controllers.CategoryList(deps.ProductService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartDevice(logg))
			r.With(requireAuth, idempotent).Post("/claim", controllers.CartClaim(deps.CartService, logg))

			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Put("/items/{productId}", controllers.CartSetQuantity(deps.CartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.CartService, deps.OrderService, logg))
			r.Get("/orders", controllers.OrderList(deps.OrderService, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.OrderService, logg))
		})

		r.Post("/newsletter/subscribe", controllers.NewsletterSubscribe(deps.Newsletter, logg))
	})

	return r
}
