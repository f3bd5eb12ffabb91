package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arborhaus/arborhaus-backend/api/controllers"
	"github.com/arborhaus/arborhaus-backend/api/middleware"
	cartsvc "github.com/arborhaus/arborhaus-backend/internal/cart"
	catalogsvc "github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/orders"
	"github.com/arborhaus/arborhaus-backend/internal/pricing"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Registry *prometheus.Registry

	Snapshots *catalogsvc.SnapshotProvider
	Resolver  *pricing.Resolver
	Stock     *catalogsvc.Repository

	CatalogService  catalogsvc.Service
	CartService     cartsvc.Service
	CheckoutService controllers.CheckoutService
	OrdersService   orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// avoid typed-nil interfaces downstream
	var idemStore redis.IdempotencyStore
	var cachePinger redis.Pinger
	if deps.Redis != nil {
		idemStore = deps.Redis
		cachePinger = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cachePinger, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// public pricing surface, no identity required
	r.Get("/api/v1/price", controllers.PriceQuote(deps.Resolver, deps.Snapshots, deps.Stock, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Checkout.IdempotencyTTL, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.CartService, deps.Snapshots, logg))
			r.Post("/lines", controllers.AddCartLine(deps.CartService, deps.Snapshots, logg))
			r.Patch("/lines/{lineID}", controllers.UpdateCartLine(deps.CartService, logg))
			r.Delete("/lines/{lineID}", controllers.RemoveCartLine(deps.CartService, logg))
			r.Post("/validate", controllers.ValidateCart(deps.CartService, deps.Snapshots, logg))
			r.Post("/coupon", controllers.ApplyCoupon(deps.CartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.OrdersService, logg))
			r.Get("/{orderID}", controllers.GetMyOrder(deps.OrdersService, logg))
			r.Get("/{orderID}/messages", controllers.ListOrderMessages(deps.OrdersService, logg))
			r.Post("/{orderID}/messages", controllers.PostOrderMessage(deps.OrdersService, logg))
			r.Patch("/messages/{messageID}", controllers.EditOrderMessage(deps.OrdersService, logg))
			r.Delete("/messages/{messageID}", controllers.DeleteOrderMessage(deps.OrdersService, logg))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.StaffListOrders(deps.OrdersService, logg))
				r.Get("/{orderID}", controllers.StaffGetOrder(deps.OrdersService, logg))
				r.Post("/{orderID}/status", controllers.StaffTransitionOrder(deps.OrdersService, logg))
				r.Post("/{orderID}/view", controllers.StaffMarkOrderViewed(deps.OrdersService, logg))
				r.Get("/{orderID}/messages", controllers.ListOrderMessages(deps.OrdersService, logg))
				r.Post("/{orderID}/messages", controllers.PostOrderMessage(deps.OrdersService, logg))
			})

			r.Put("/price-rows", controllers.ImportPriceRows(deps.CatalogService, logg))
		})
	})

	return r
}
