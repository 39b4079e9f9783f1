package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/branches"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/contact"
	"github.com/angelmondragon/storefront-backend/internal/deliveryareas"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires. Redis, Storage, Media and Contact are
// optional; the routes that need them degrade instead of disappearing.
type Deps struct {
	DB      controllers.Pinger
	Redis   *redis.Client
	Storage controllers.Pinger

	Registry    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Catalog       catalog.Service
	Carts         cart.Service
	Checkout      checkout.Service
	Orders        orders.Service
	Stock         stock.Service
	Branches      branches.Service
	Products      product.Service
	DeliveryAreas deliveryareas.Service
	Media         media.Service
	Contact       contact.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	// A nil *redis.Client must reach the middleware as a nil interface.
	var (
		idempotencyStore middleware.IdempotencyStore
		rateStore        middleware.RateLimitStore
		redisPinger      controllers.Pinger
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		rateStore = deps.Redis
		redisPinger = deps.Redis
	}

	trackPolicy := middleware.NewRateLimitPolicy(
		"track",
		cfg.RateLimit.TrackWindow,
		cfg.RateLimit.TrackIPLimit,
		"orderNumber",
		cfg.RateLimit.TrackKeyLimit,
	)
	contactPolicy := middleware.NewRateLimitPolicy(
		"contact",
		cfg.RateLimit.ContactWindow,
		cfg.RateLimit.ContactIPLimit,
		"email",
		cfg.RateLimit.ContactKeyLimit,
	)
	checkoutOnce := middleware.Idempotency(idempotencyStore, middleware.CheckoutIdempotencyTTL, logg)
	createOnce := middleware.Idempotency(idempotencyStore, middleware.DefaultIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    redisPinger,
			"storage":  deps.Storage,
		}, logg))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/branches", controllers.StorefrontBranches(deps.Catalog, logg))
		r.Get("/categories", controllers.StorefrontCategories(deps.Catalog, logg))

		r.Route("/branches/{branchId}", func(r chi.Router) {
			r.Get("/home", controllers.StorefrontHome(deps.Catalog, logg))
			r.Get("/products", controllers.StorefrontSearch(deps.Catalog, logg))
			r.Get("/products/{slug}", controllers.StorefrontProductDetail(deps.Catalog, logg))
			r.Get("/categories/{slug}/products", controllers.StorefrontCategoryProducts(deps.Catalog, logg))
			r.Get("/delivery-areas", controllers.StorefrontDeliveryAreas(deps.DeliveryAreas, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Carts, logg))
			r.Put("/", controllers.CartImport(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, logg))
			r.Patch("/items", controllers.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items", controllers.CartRemoveItem(deps.Carts, logg))
		})

		r.With(checkoutOnce).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.With(middleware.RateLimit(trackPolicy, rateStore, logg)).Post("/orders/track", controllers.OrderTrack(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.OrderConfirmation(deps.Orders, deps.Carts, logg))
		r.Get("/orders/{orderId}/summary", controllers.OrderSummary(deps.Orders, logg))

		r.With(middleware.RateLimit(contactPolicy, rateStore, logg)).Post("/contact", controllers.ContactSend(deps.Contact, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", controllers.AdminBranchList(deps.Branches, logg))
			r.Post("/", controllers.AdminBranchCreate(deps.Branches, logg))
			r.Get("/{branchId}", controllers.AdminBranchGet(deps.Branches, logg))
			r.Patch("/{branchId}", controllers.AdminBranchUpdate(deps.Branches, logg))
			r.Delete("/{branchId}", controllers.AdminBranchDelete(deps.Branches, logg))
			r.Get("/{branchId}/stock", controllers.AdminStockList(deps.Stock, logg))
			r.Put("/{branchId}/stock", controllers.AdminStockSave(deps.Stock, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminCategoryList(deps.Products, logg))
			r.Post("/", controllers.AdminCategoryCreate(deps.Products, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(deps.Products, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Products, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.Products, logg))
			r.With(createOnce).Post("/", controllers.AdminProductCreate(deps.Products, logg))
			r.Get("/{productId}", controllers.AdminProductGet(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
			r.Post("/{productId}/image", controllers.AdminProductImageUpload(deps.Media, cfg.Media.MaxUploadBytes(), logg))
			r.Post("/{productId}/variants", controllers.AdminVariantCreate(deps.Products, logg))
			r.Patch("/{productId}/variants/{variantId}", controllers.AdminVariantUpdate(deps.Products, logg))
			r.Delete("/{productId}/variants/{variantId}", controllers.AdminVariantDelete(deps.Products, logg))
		})

		r.Route("/delivery-areas", func(r chi.Router) {
			r.Get("/", controllers.AdminDeliveryAreaList(deps.DeliveryAreas, logg))
			r.Post("/", controllers.AdminDeliveryAreaCreate(deps.DeliveryAreas, logg))
			r.Patch("/{areaId}", controllers.AdminDeliveryAreaUpdate(deps.DeliveryAreas, logg))
			r.Delete("/{areaId}", controllers.AdminDeliveryAreaDelete(deps.DeliveryAreas, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderGet(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
		})
	})

	return r
}
