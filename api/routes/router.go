package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmdelacruz/evride-storefront/api/controllers"
	"github.com/lmdelacruz/evride-storefront/api/middleware"
	cartsvc "github.com/lmdelacruz/evride-storefront/internal/cart"
	checkoutsvc "github.com/lmdelacruz/evride-storefront/internal/checkout"
	"github.com/lmdelacruz/evride-storefront/internal/orders"
	productsvc "github.com/lmdelacruz/evride-storefront/internal/products"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/redis"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redis.Pinger,
	sessionStore *session.Store,
	cartService cartsvc.Client,
	productService productsvc.Client,
	checkoutService *checkoutsvc.Service,
	ordersProxy *orders.Proxy,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Session(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", controllers.CartList(cartService, cfg.Pricing, logg))
		r.Post("/", controllers.CartAdd(cartService, cfg.Pricing, logg))
		r.Put("/{itemID}", controllers.CartUpdate(cartService, cfg.Pricing, logg))
		r.Delete("/{itemID}", controllers.CartRemove(cartService, cfg.Pricing, logg))
		r.Delete("/", controllers.CartClear(cartService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(productService, logg))
		r.Get("/featured", controllers.ProductFeatured(productService, logg))
		r.Get("/categories", controllers.ProductCategories(productService))
		r.Get("/{productID}", controllers.ProductGet(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Put("/{productID}", controllers.ProductUpdate(productService, logg))
			r.Post("/{productID}", controllers.ProductUpdate(productService, logg)) // multipart method override
			r.Delete("/{productID}", controllers.ProductDelete(productService, logg))
		})
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/", controllers.CheckoutState(checkoutService))
		r.Post("/login", controllers.CheckoutLogin(checkoutService, sessionStore, logg))
		r.Post("/register", controllers.CheckoutRegister(checkoutService, sessionStore, logg))
		r.Post("/", controllers.CheckoutSubmit(checkoutService, logg))
	})

	r.HandleFunc("/api/orders", controllers.OrdersProxy(ordersProxy, logg))

	return r
}
