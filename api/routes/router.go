package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/platofoods/plato-backend/api/controllers"
	"github.com/platofoods/plato-backend/api/middleware"
	"github.com/platofoods/plato-backend/internal/carts"
	"github.com/platofoods/plato-backend/internal/catalog"
	"github.com/platofoods/plato-backend/internal/dispatch"
	"github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/internal/tracking"
	"github.com/platofoods/plato-backend/pkg/config"
	"github.com/platofoods/plato-backend/pkg/db"
	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogService catalog.Service,
	cartService carts.Service,
	ordersService orders.Service,
	dispatchService dispatch.Service,
	trackingService tracking.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisClient,
		}))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Payment settlement callbacks arrive service-to-service and carry no
	// end-user identity.
	r.Route("/api/v1/internal", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Post("/orders/{orderId}/payment", controllers.RecordPayment(ordersService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.ListRestaurants(catalogService, logg))
			r.Get("/{restaurantId}", controllers.RestaurantDetail(catalogService, logg))
			r.Get("/{restaurantId}/menu", controllers.ListMenuItems(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/orders", controllers.CreateOrder(ordersService, logg))
		r.Get("/orders", controllers.ListOrders(ordersService, logg))
		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(ordersService, logg))
			r.Post("/transition", controllers.TransitionOrder(ordersService, logg))
			r.Get("/tracking", controllers.TrackingSnapshot(trackingService, logg))
			r.Get("/tracking/stream", controllers.TrackingStream(trackingService, logg))
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAgent, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/queue", controllers.AgentOrderQueue(dispatchService, logg))
				r.Post("/{orderId}/claim", controllers.AgentClaimOrder(dispatchService, logg))
				r.Post("/{orderId}/location", controllers.AgentUpdateLocation(trackingService, logg))
			})
		})
	})

	return r
}
