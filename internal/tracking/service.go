package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/internal/catalog"
	"github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/geo"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/metrics"
)

// arrivedRadiusKm is the distance at which an en-route agent counts as
// arrived at the customer.
const arrivedRadiusKm = 0.2

// Service exposes the tracking surface: live location ingestion, snapshots
// for polling clients and subscription management for push clients.
type Service interface {
	UpdateAgentLocation(ctx context.Context, orderID, agentID uuid.UUID, lat, lon float64) (*models.TrackingRecord, error)
	GetSnapshot(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole) (*models.TrackingRecord, error)
	Subscribe(orderID uuid.UUID, subscriberID string) <-chan Update
	Unsubscribe(orderID uuid.UUID, subscriberID string)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	catalog catalog.Repository
	hub     *Hub
	metrics *metrics.DispatchMetrics
	logg    *logger.Logger
}

// NewService wires the tracking service.
func NewService(repo Repository, ordersRepo orders.Repository, catalogRepo catalog.Repository, hub *Hub, m *metrics.DispatchMetrics, logg *logger.Logger) Service {
	return &service{
		repo:    repo,
		orders:  ordersRepo,
		catalog: catalogRepo,
		hub:     hub,
		metrics: m,
		logg:    logg,
	}
}

func (s *service) UpdateAgentLocation(ctx context.Context, orderID, agentID uuid.UUID, lat, lon float64) (*models.TrackingRecord, error) {
	started := time.Now()

	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.DeliveryAgentID == nil || *order.DeliveryAgentID != agentID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not assigned to agent")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer in delivery")
	}

	record, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracking record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tracking record")
	}

	distance := geo.HaversineKm(lat, lon, record.CustomerLat, record.CustomerLon)
	phase := derivePhase(order.Status, distance)

	updates := map[string]any{
		"agent_lat":             lat,
		"agent_lon":             lon,
		"distance_remaining_km": distance,
		"phase":                 phase,
	}
	if err := s.repo.Update(ctx, orderID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing agent location")
	}

	record.AgentLat = &lat
	record.AgentLon = &lon
	record.DistanceRemainingKm = &distance
	record.Phase = phase

	s.hub.Publish(Update{
		OrderID: orderID,
		Kind:    UpdateKindLocation,
		Location: &LocationPing{
			Lat:                 lat,
			Lon:                 lon,
			DistanceRemainingKm: distance,
			Phase:               phase,
		},
		At: time.Now(),
	})

	s.metrics.ObserveTrackingUpdate(phase.String(), time.Since(started))
	return record, nil
}

func (s *service) GetSnapshot(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole) (*models.TrackingRecord, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if err := s.authorize(ctx, order, requesterID, role); err != nil {
		return nil, err
	}

	record, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracking record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tracking record")
	}
	return record, nil
}

func (s *service) Subscribe(orderID uuid.UUID, subscriberID string) <-chan Update {
	return s.hub.Subscribe(orderID, subscriberID)
}

func (s *service) Unsubscribe(orderID uuid.UUID, subscriberID string) {
	s.hub.Unsubscribe(orderID, subscriberID)
}

func (s *service) authorize(ctx context.Context, order *models.Order, requesterID uuid.UUID, role enums.ActorRole) error {
	switch role {
	case enums.ActorRoleCustomer:
		if order.CustomerID == requesterID {
			return nil
		}
	case enums.ActorRoleRestaurant:
		restaurant, err := s.catalog.FindRestaurant(ctx, order.RestaurantID)
		if err == nil && restaurant.OwnerID == requesterID {
			return nil
		}
	case enums.ActorRoleAgent:
		if order.DeliveryAgentID != nil && *order.DeliveryAgentID == requesterID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "tracking not visible to requester")
}

func derivePhase(status enums.OrderStatus, distanceRemainingKm float64) enums.TrackingPhase {
	if status != enums.OrderStatusPickedUp {
		return enums.TrackingPhaseAtRestaurant
	}
	if distanceRemainingKm <= arrivedRadiusKm {
		return enums.TrackingPhaseArrived
	}
	return enums.TrackingPhaseEnRoute
}
