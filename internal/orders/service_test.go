package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/internal/carts"
	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/metrics"
	"github.com/platofoods/plato-backend/pkg/outbox"
	"github.com/platofoods/plato-backend/pkg/pagination"
	"github.com/platofoods/plato-backend/pkg/pricing"
)

var testClock = func() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

type stubOrdersRepo struct {
	order        *models.Order
	tracking     *models.TrackingRecord
	trackingErr  error
	created      []*models.Order
	orderUpdates map[string]any
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubOrdersRepo) CreateTrackingRecord(ctx context.Context, record *models.TrackingRecord) (*models.TrackingRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.tracking = record
	return record, nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindTrackingByOrder(ctx context.Context, orderID uuid.UUID) (*models.TrackingRecord, error) {
	if s.trackingErr != nil {
		return nil, s.trackingErr
	}
	if s.tracking == nil || s.tracking.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.tracking, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.orderUpdates = updates
	if status, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		s.order.PaymentStatus = status
	}
	return nil
}

func (s *stubOrdersRepo) UpdateOrderIfStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error) {
	if s.order == nil || s.order.ID != id || s.order.Status != expected {
		return false, nil
	}
	s.orderUpdates = updates
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		s.order.Status = status
	}
	return true, nil
}

func (s *stubOrdersRepo) ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListUnassigned(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error) {
	panic("not implemented")
}

type stubCatalogRepo struct {
	restaurant *models.Restaurant
	address    *models.Address
	menuItems  []models.MenuItem
}

func (s *stubCatalogRepo) FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if s.restaurant == nil || s.restaurant.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.restaurant, nil
}

func (s *stubCatalogRepo) FindRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	if s.restaurant == nil || s.restaurant.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.restaurant, nil
}

func (s *stubCatalogRepo) ListRestaurants(ctx context.Context, params pagination.Params) (*pagination.Page[models.Restaurant], error) {
	panic("not implemented")
}

func (s *stubCatalogRepo) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	panic("not implemented")
}

func (s *stubCatalogRepo) FindMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	return s.menuItems, nil
}

func (s *stubCatalogRepo) ListMenuItems(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*pagination.Page[models.MenuItem], error) {
	panic("not implemented")
}

func (s *stubCatalogRepo) FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if s.address == nil || s.address.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.address, nil
}

type stubCartsRepo struct {
	cart    *models.CartRecord
	cleared bool
}

func (s *stubCartsRepo) WithTx(tx *gorm.DB) carts.Repository { return s }

func (s *stubCartsRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if s.cart == nil || s.cart.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartsRepo) Create(ctx context.Context, cart *models.CartRecord) (*models.CartRecord, error) {
	panic("not implemented")
}

func (s *stubCartsRepo) AddItem(ctx context.Context, item *models.CartItem) error {
	panic("not implemented")
}

func (s *stubCartsRepo) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	panic("not implemented")
}

func (s *stubCartsRepo) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	panic("not implemented")
}

func (s *stubCartsRepo) SetRestaurant(ctx context.Context, cartID uuid.UUID, restaurantID *uuid.UUID) error {
	panic("not implemented")
}

func (s *stubCartsRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	s.cleared = true
	return nil
}

type stubTx struct {
	failWith error
}

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.failWith != nil {
		return s.failWith
	}
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubBroadcaster struct {
	calls [][2]enums.OrderStatus
}

func (s *stubBroadcaster) BroadcastStatus(orderID uuid.UUID, from, to enums.OrderStatus) {
	s.calls = append(s.calls, [2]enums.OrderStatus{from, to})
}

type fixture struct {
	svc       *service
	repo      *stubOrdersRepo
	catalog   *stubCatalogRepo
	carts     *stubCartsRepo
	outbox    *stubOutbox
	broadcast *stubBroadcaster

	customerID   uuid.UUID
	ownerID      uuid.UUID
	agentID      uuid.UUID
	restaurantID uuid.UUID
	addressID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      &stubOrdersRepo{},
		outbox:    &stubOutbox{},
		broadcast: &stubBroadcaster{},

		customerID:   uuid.New(),
		ownerID:      uuid.New(),
		agentID:      uuid.New(),
		restaurantID: uuid.New(),
		addressID:    uuid.New(),
	}

	f.catalog = &stubCatalogRepo{
		restaurant: &models.Restaurant{
			ID:               f.restaurantID,
			OwnerID:          f.ownerID,
			Name:             "Casa Plato",
			Lat:              40.4168,
			Lon:              -3.7038,
			DeliveryFeeCents: 2000,
			TaxRate:          decimal.NewFromFloat(0.05),
		},
		address: &models.Address{
			ID:         f.addressID,
			CustomerID: f.customerID,
			Lat:        40.4268,
			Lon:        -3.7138,
		},
	}

	itemA := uuid.New()
	itemB := uuid.New()
	f.catalog.menuItems = []models.MenuItem{
		{ID: itemA, RestaurantID: f.restaurantID, Name: "Paella", PriceCents: 10000, PrepMinutes: 25, Available: true},
		{ID: itemB, RestaurantID: f.restaurantID, Name: "Tortilla", PriceCents: 5000, PrepMinutes: 10, Available: true},
	}

	rid := f.restaurantID
	f.carts = &stubCartsRepo{
		cart: &models.CartRecord{
			ID:           uuid.New(),
			CustomerID:   f.customerID,
			RestaurantID: &rid,
			Items: []models.CartItem{
				{ID: uuid.New(), MenuItemID: itemA, Qty: 1},
				{ID: uuid.New(), MenuItemID: itemB, Qty: 2},
			},
		},
	}

	estimator, err := pricing.NewEstimator(25, 5)
	require.NoError(t, err)
	estimator.Now = testClock

	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})

	svc := NewService(
		f.repo, f.catalog, f.carts, estimator,
		&stubTx{}, f.outbox, f.broadcast,
		metrics.NewDispatchMetrics(nil), logg,
	).(*service)
	svc.now = testClock
	f.svc = svc
	return f
}

func (f *fixture) createInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID:        f.customerID,
		RestaurantID:      f.restaurantID,
		DeliveryAddressID: f.addressID,
	}
}

func (f *fixture) seedOrder(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:           uuid.New(),
		OrderNumber:  1234,
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Status:       status,
		Items: []models.OrderItem{
			{Name: "Paella", UnitPriceCents: 10000, Qty: 1, PrepMinutes: 25},
		},
	}
	f.repo.order = order
	f.repo.tracking = &models.TrackingRecord{
		OrderID:       order.ID,
		RestaurantLat: 40.4168,
		RestaurantLon: -3.7038,
		CustomerLat:   40.4268,
		CustomerLon:   -3.7138,
	}
	return order
}

func TestCreateOrderComputesTotalsAndSeedsTracking(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.createInput())
	require.NoError(t, err)

	// 100.00 + 2x50.00 subtotal, 5% tax, 20.00 fee.
	assert.Equal(t, 20000, order.SubtotalCents)
	assert.Equal(t, 1000, order.TaxCents)
	assert.Equal(t, 2000, order.DeliveryFeeCents)
	assert.Equal(t, 23000, order.TotalCents)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	require.NotNil(t, order.EstimatedReadyAt)
	assert.True(t, order.EstimatedReadyAt.After(testClock()))

	require.NotNil(t, f.repo.tracking)
	assert.Equal(t, order.ID, f.repo.tracking.OrderID)
	assert.Equal(t, 40.4168, f.repo.tracking.RestaurantLat)
	assert.Equal(t, enums.TrackingPhaseAtRestaurant, f.repo.tracking.Phase)

	assert.True(t, f.carts.cleared, "cart must be cleared in the same transaction")

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventOrderCreated, f.outbox.events[0].EventType)
	assert.Equal(t, order.ID, f.outbox.events[0].AggregateID)
}

func TestOrderMoneyFrozenAgainstCatalogEdits(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.createInput())
	require.NoError(t, err)

	// Catalog edits after checkout must not leak into the stored order.
	for i := range f.catalog.menuItems {
		f.catalog.menuItems[i].PriceCents *= 3
	}
	f.catalog.restaurant.DeliveryFeeCents = 9900
	f.catalog.restaurant.TaxRate = decimal.NewFromFloat(0.21)

	reloaded, err := f.svc.GetOrder(context.Background(), order.ID, f.customerID, enums.ActorRoleCustomer)
	require.NoError(t, err)

	assert.Equal(t, 20000, reloaded.SubtotalCents)
	assert.Equal(t, 1000, reloaded.TaxCents)
	assert.Equal(t, 2000, reloaded.DeliveryFeeCents)
	assert.Equal(t, 23000, reloaded.TotalCents)

	require.Len(t, reloaded.Items, 2)
	unitPrices := map[string]int{}
	for _, item := range reloaded.Items {
		unitPrices[item.Name] = item.UnitPriceCents
	}
	assert.Equal(t, 10000, unitPrices["Paella"])
	assert.Equal(t, 5000, unitPrices["Tortilla"])
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.carts.cart.Items = nil

	_, err := f.svc.CreateOrder(context.Background(), f.createInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Nil(t, f.repo.order, "no partial order on failure")
}

func TestCreateOrderAddressNotOwned(t *testing.T) {
	f := newFixture(t)
	f.catalog.address.CustomerID = uuid.New()

	_, err := f.svc.CreateOrder(context.Background(), f.createInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Nil(t, f.repo.order)
	assert.False(t, f.carts.cleared)
}

func TestCreateOrderUnknownRestaurant(t *testing.T) {
	f := newFixture(t)
	input := f.createInput()
	input.RestaurantID = uuid.New()

	_, err := f.svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateOrderAtomicityOnTxFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.tx = &stubTx{failWith: assertAnError}

	_, err := f.svc.CreateOrder(context.Background(), f.createInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

var assertAnError = gorm.ErrInvalidTransaction

func TestTransitionCustomerCancelThenRestaurantConfirmFails(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	cancelled, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.customerID,
		RequesterRole: enums.ActorRoleCustomer,
		Target:        enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	_, err = f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestTransitionUnreachableTargetDistinguished(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusConfirmed)

	// pending is a valid status but no edge ever leads back into it.
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusPending,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Contains(t, err.Error(), "never entered")
}

func TestTransitionRoleMismatchForbidden(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.customerID,
		RequesterRole: enums.ActorRoleCustomer,
		Target:        enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionWrongOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   uuid.New(),
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionConfirmPublishesAndRecomputesETA(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	_, hasETA := f.repo.orderUpdates["estimated_ready_at"]
	assert.True(t, hasETA, "confirm must refresh the estimate")

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, f.outbox.events[0].EventType)

	require.Len(t, f.broadcast.calls, 1)
	assert.Equal(t, enums.OrderStatusPending, f.broadcast.calls[0][0])
	assert.Equal(t, enums.OrderStatusConfirmed, f.broadcast.calls[0][1])
}

func TestTransitionETAFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)
	f.repo.trackingErr = gorm.ErrInvalidDB

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	_, hasETA := f.repo.orderUpdates["estimated_ready_at"]
	assert.False(t, hasETA, "previous estimate must be retained")
}

func TestTransitionPrepaymentGate(t *testing.T) {
	f := newFixture(t)
	f.catalog.restaurant.RequiresPrepayment = true
	order := f.seedOrder(enums.OrderStatusPending)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.repo.order.PaymentStatus = enums.PaymentStatusPaid
	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.ownerID,
		RequesterRole: enums.ActorRoleRestaurant,
		Target:        enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
}

func TestTransitionPickupRequiresAssignedAgent(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusReady)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.agentID,
		RequesterRole: enums.ActorRoleAgent,
		Target:        enums.OrderStatusPickedUp,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	agentID := f.agentID
	f.repo.order.DeliveryAgentID = &agentID

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.agentID,
		RequesterRole: enums.ActorRoleAgent,
		Target:        enums.OrderStatusPickedUp,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, updated.Status)
}

func TestTransitionDeliveredSetsTimestamp(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPickedUp)
	agentID := f.agentID
	f.repo.order.DeliveryAgentID = &agentID

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:       order.ID,
		RequesterID:   f.agentID,
		RequesterRole: enums.ActorRoleAgent,
		Target:        enums.OrderStatusDelivered,
	})
	require.NoError(t, err)

	deliveredAt, ok := f.repo.orderUpdates["delivered_at"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, testClock(), deliveredAt)
}

func TestRecordPaymentEmitsEvent(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	updated, err := f.svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrderID:     order.ID,
		Status:      enums.PaymentStatusPaid,
		AmountCents: 23000,
		Reference:   "gw-789",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventOrderPaymentRecorded, f.outbox.events[0].EventType)
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(enums.OrderStatusPending)

	_, err := f.svc.GetOrder(context.Background(), order.ID, f.customerID, enums.ActorRoleCustomer)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), order.ID, f.ownerID, enums.ActorRoleRestaurant)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), order.ID, f.agentID, enums.ActorRoleAgent)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	agentID := f.agentID
	f.repo.order.DeliveryAgentID = &agentID
	_, err = f.svc.GetOrder(context.Background(), order.ID, f.agentID, enums.ActorRoleAgent)
	assert.NoError(t, err)
}
