package orders

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/internal/carts"
	"github.com/platofoods/plato-backend/internal/catalog"
	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/geo"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/metrics"
	"github.com/platofoods/plato-backend/pkg/outbox"
	"github.com/platofoods/plato-backend/pkg/pagination"
	"github.com/platofoods/plato-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StatusBroadcaster pushes a status change to the live subscribers of one
// order. Implemented by the tracking hub.
type StatusBroadcaster interface {
	BroadcastStatus(orderID uuid.UUID, from, to enums.OrderStatus)
}

// Service defines the externally callable order mutations and reads.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForRestaurant(ctx context.Context, ownerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error)
}

type service struct {
	repo        Repository
	catalog     catalog.Repository
	carts       carts.Repository
	estimator   *pricing.Estimator
	tx          txRunner
	outbox      outboxPublisher
	broadcaster StatusBroadcaster
	metrics     *metrics.DispatchMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the order lifecycle service.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	cartsRepo carts.Repository,
	estimator *pricing.Estimator,
	tx txRunner,
	outboxSvc outboxPublisher,
	broadcaster StatusBroadcaster,
	m *metrics.DispatchMetrics,
	logg *logger.Logger,
) Service {
	return &service{
		repo:        repo,
		catalog:     catalogRepo,
		carts:       cartsRepo,
		estimator:   estimator,
		tx:          tx,
		outbox:      outboxSvc,
		broadcaster: broadcaster,
		metrics:     m,
		logg:        logg,
		now:         time.Now,
	}
}

// newOrderNumber produces a roughly monotonic, collision-resistant order
// number: unix millis with a random three digit suffix.
func newOrderNumber(now time.Time) int64 {
	return now.UnixMilli()*1000 + rand.Int63n(1000)
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RestaurantID == uuid.Nil || input.DeliveryAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant and delivery address required")
	}

	cart, err := s.carts.FindByCustomer(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if cart.RestaurantID == nil || *cart.RestaurantID != input.RestaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart does not belong to this restaurant")
	}

	restaurant, err := s.catalog.FindRestaurant(ctx, input.RestaurantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}

	address, err := s.catalog.FindAddress(ctx, input.DeliveryAddressID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading address")
	}
	if address.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to customer")
	}

	menuIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		menuIDs = append(menuIDs, item.MenuItemID)
	}
	menuItems, err := s.catalog.FindMenuItemsByIDs(ctx, menuIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu items")
	}
	menuByID := make(map[uuid.UUID]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		menuByID[mi.ID] = mi
	}

	lines := make([]pricing.LineInput, 0, len(cart.Items))
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	prepMinutes := make([]int, 0, len(cart.Items))
	for _, ci := range cart.Items {
		mi, ok := menuByID[ci.MenuItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item no longer exists")
		}
		lines = append(lines, pricing.LineInput{UnitPriceCents: mi.PriceCents, Qty: ci.Qty})
		prepMinutes = append(prepMinutes, mi.PrepMinutes)
		menuItemID := mi.ID
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:          &menuItemID,
			Name:                mi.Name,
			UnitPriceCents:      mi.PriceCents,
			Qty:                 ci.Qty,
			PrepMinutes:         mi.PrepMinutes,
			ExcludedIngredients: ci.ExcludedIngredients,
		})
	}

	totals, err := s.estimator.ComputeTotals(lines, restaurant.DeliveryFeeCents, restaurant.TaxRate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "computing totals")
	}

	order := &models.Order{
		OrderNumber:       newOrderNumber(s.now()),
		CustomerID:        input.CustomerID,
		RestaurantID:      restaurant.ID,
		DeliveryAddressID: address.ID,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusUnpaid,
		SubtotalCents:     totals.SubtotalCents,
		TaxCents:          totals.TaxCents,
		DeliveryFeeCents:  totals.DeliveryFeeCents,
		TotalCents:        totals.TotalCents,
		SpecialRequest:    input.SpecialRequest,
		Items:             orderItems,
	}

	// Creation-time estimate from the restaurant-to-customer distance.
	distance := geo.DistanceKm(
		geo.Point{Lat: restaurant.Lat, Lon: restaurant.Lon},
		geo.Point{Lat: address.Lat, Lon: address.Lon},
	)
	eta := s.estimator.EstimateCompletion(prepMinutes, distance)
	order.EstimatedReadyAt = &eta

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txCarts := s.carts.WithTx(tx)

		created, createErr := txRepo.CreateOrder(ctx, order)
		if createErr != nil {
			return createErr
		}
		order = created

		record := &models.TrackingRecord{
			OrderID:       order.ID,
			RestaurantLat: restaurant.Lat,
			RestaurantLon: restaurant.Lon,
			CustomerLat:   address.Lat,
			CustomerLon:   address.Lon,
			Phase:         enums.TrackingPhaseAtRestaurant,
		}
		if _, trackErr := txRepo.CreateTrackingRecord(ctx, record); trackErr != nil {
			return trackErr
		}

		if clearErr := txCarts.Clear(ctx, cart.ID); clearErr != nil {
			return clearErr
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID.String(), Role: enums.ActorRoleCustomer},
			Data: outbox.OrderCreatedData{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				CustomerID:       order.CustomerID,
				RestaurantID:     order.RestaurantID,
				TotalCents:       order.TotalCents,
				EstimatedReadyAt: order.EstimatedReadyAt,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order created")
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, order, requesterID, role); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	rule := findTransition(order.Status, input.Target)
	if rule == nil {
		msg := "state transition disallowed"
		if !reachable(input.Target) {
			msg = "target status is never entered by transition"
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msg).
			WithDetails(map[string]any{"from": order.Status, "to": input.Target})
	}

	if err := s.authorizeTransition(ctx, order, rule, input); err != nil {
		return nil, err
	}

	if order.Status == enums.OrderStatusPending && input.Target == enums.OrderStatusConfirmed {
		restaurant, rErr := s.catalog.FindRestaurant(ctx, order.RestaurantID)
		if rErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, rErr, "loading restaurant")
		}
		if restaurant.RequiresPrepayment && order.PaymentStatus != enums.PaymentStatusPaid {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment required before confirmation")
		}
	}

	updates := map[string]any{"status": input.Target}
	now := s.now()
	switch input.Target {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	if rule.recomputeETA {
		if eta, etaErr := s.recomputeETA(ctx, order); etaErr != nil {
			// Estimation failures never block the transition; keep the
			// previous estimate.
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "eta recompute failed, keeping previous estimate")
		} else {
			updates["estimated_ready_at"] = eta
		}
	}

	from := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		changed, updErr := txRepo.UpdateOrderIfStatus(ctx, order.ID, from, updates)
		if updErr != nil {
			return updErr
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "state transition disallowed")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.RequesterID.String(), Role: input.RequesterRole},
			Data: outbox.OrderStatusChangedData{
				OrderID: order.ID,
				From:    from,
				To:      input.Target,
			},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying transition")
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastStatus(order.ID, from, input.Target)
	}
	s.metrics.IncTransition(from.String(), input.Target.String())

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     from.String(),
		"to":       input.Target.String(),
	})
	s.logg.Info(logCtx, "order transitioned")

	return s.loadOrder(ctx, order.ID)
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already closed")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if updErr := txRepo.UpdateOrder(ctx, order.ID, map[string]any{"payment_status": input.Status}); updErr != nil {
			return updErr
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentRecorded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: outbox.OrderPaymentRecordedData{
				OrderID:       order.ID,
				PaymentStatus: input.Status,
				AmountCents:   input.AmountCents,
				Reference:     input.Reference,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment")
	}

	return s.loadOrder(ctx, order.ID)
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByCustomer(ctx, customerID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customer orders")
	}
	return page, nil
}

func (s *service) ListForRestaurant(ctx context.Context, ownerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	restaurant, err := s.restaurantByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	page, err := s.repo.ListByRestaurant(ctx, restaurant.ID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurant orders")
	}
	return page, nil
}

func (s *service) ListForAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByAgent(ctx, agentID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing agent orders")
	}
	return page, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) authorizeRead(ctx context.Context, order *models.Order, requesterID uuid.UUID, role enums.ActorRole) error {
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
	return pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to requester")
}

func (s *service) authorizeTransition(ctx context.Context, order *models.Order, rule *transitionRule, input TransitionInput) error {
	if input.RequesterRole != rule.role {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not request this transition")
	}
	switch rule.role {
	case enums.ActorRoleCustomer:
		if order.CustomerID != input.RequesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
	case enums.ActorRoleRestaurant:
		restaurant, err := s.catalog.FindRestaurant(ctx, order.RestaurantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
		}
		if restaurant.OwnerID != input.RequesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to restaurant")
		}
	case enums.ActorRoleAgent:
		if !rule.requiresAssignment {
			break
		}
		if order.DeliveryAgentID == nil || *order.DeliveryAgentID != input.RequesterID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order not assigned to agent")
		}
	}
	return nil
}

// recomputeETA resolves the distance still to cover: the live tracking value
// when an agent has reported, otherwise the restaurant-to-customer leg from
// the fixed anchors. The same policy applies at creation and on transitions.
func (s *service) recomputeETA(ctx context.Context, order *models.Order) (time.Time, error) {
	record, err := s.repo.FindTrackingByOrder(ctx, order.ID)
	if err != nil {
		return time.Time{}, err
	}

	var distance float64
	if record.DistanceRemainingKm != nil {
		distance = *record.DistanceRemainingKm
	} else {
		distance = geo.DistanceKm(
			geo.Point{Lat: record.RestaurantLat, Lon: record.RestaurantLon},
			geo.Point{Lat: record.CustomerLat, Lon: record.CustomerLon},
		)
	}

	prep := make([]int, 0, len(order.Items))
	for _, item := range order.Items {
		prep = append(prep, item.PrepMinutes)
	}
	return s.estimator.EstimateCompletion(prep, distance), nil
}

func (s *service) restaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.catalog.FindRestaurantByOwner(ctx, ownerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found for owner")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	return restaurant, nil
}
