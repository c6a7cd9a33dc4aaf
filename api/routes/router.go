package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commercemesh/order-service/api/controllers"
	"github.com/commercemesh/order-service/api/middleware"
	"github.com/commercemesh/order-service/internal/orders"
	"github.com/commercemesh/order-service/pkg/config"
	"github.com/commercemesh/order-service/pkg/db"
	"github.com/commercemesh/order-service/pkg/logger"
	pkgredis "github.com/commercemesh/order-service/pkg/redis"
)

// NewRouter assembles the HTTP surface: caller-facing order operations,
// inbound event delivery routes, the subscription manifest, and operational
// endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	brokerP db.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	ordersSvc orders.Service,
	events *controllers.EventHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, brokerP))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Broker-facing routes. The sidecar delivers straight to these; no caller
	// identity is involved.
	r.Get("/dapr/subscribe", controllers.Subscriptions(cfg.Broker.PubSubName))
	r.Post(controllers.RouteIDCreation, events.OnIDCreation)
	r.Post(controllers.RouteProductVariantVersionCreated, events.OnProductVariantVersionCreated)
	r.Post(controllers.RouteProductVariantUpdated, events.OnProductVariantUpdated)
	r.Post(controllers.RouteTaxRateVersionCreated, events.OnTaxRateVersionCreated)
	r.Post(controllers.RouteUserAddressCreated, events.OnUserAddressCreated)
	r.Post(controllers.RouteUserAddressArchived, events.OnUserAddressArchived)
	r.Post(controllers.RouteShipmentCreationFailed, events.OnShipmentCreationFailed)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/", controllers.CreateOrder(ordersSvc, logg))
		r.Get("/", controllers.ListOrders(ordersSvc, logg))
		r.Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))
		r.Post("/{orderId}/place", controllers.PlaceOrder(ordersSvc, logg))
		r.Get("/items/{itemId}", controllers.GetOrderItem(ordersSvc, logg))
	})

	return r
}
