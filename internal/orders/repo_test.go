package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  customer_id TEXT NOT NULL,
  restaurant_id TEXT NOT NULL,
  delivery_agent_id TEXT,
  delivery_address_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  delivery_fee_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  special_request TEXT,
  estimated_ready_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  prep_minutes INTEGER NOT NULL DEFAULT 0,
  excluded_ingredients TEXT,
  created_at DATETIME
);`
	trackingRecords := `
CREATE TABLE IF NOT EXISTS tracking_records (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  restaurant_lat REAL NOT NULL,
  restaurant_lon REAL NOT NULL,
  customer_lat REAL NOT NULL,
  customer_lon REAL NOT NULL,
  agent_lat REAL,
  agent_lon REAL,
  distance_remaining_km REAL,
  phase TEXT NOT NULL DEFAULT 'at_restaurant',
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, stmt := range []string{ordersTable, orderItems, trackingRecords} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM order_items")
		db.Exec("DELETE FROM tracking_records")
		db.Exec("DELETE FROM orders")
	})

	return db
}

func insertOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, agentID *uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       time.Now().UnixNano(),
		CustomerID:        uuid.New(),
		RestaurantID:      uuid.New(),
		DeliveryAgentID:   agentID,
		DeliveryAddressID: uuid.New(),
		Status:            status,
		PaymentStatus:     enums.PaymentStatusUnpaid,
		SubtotalCents:     1000,
		TaxCents:          50,
		DeliveryFeeCents:  200,
		TotalCents:        1250,
		CreatedAt:         createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestClaimOrderSingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusReady, nil, time.Now())
	first := uuid.New()
	second := uuid.New()

	won, err := repo.ClaimOrder(ctx, order.ID, first)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.ClaimOrder(ctx, order.ID, second)
	require.NoError(t, err)
	assert.False(t, won, "second claim must lose")

	stored, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeliveryAgentID)
	assert.Equal(t, first, *stored.DeliveryAgentID, "agent must be set exactly once")
	assert.Equal(t, enums.OrderStatusReady, stored.Status, "claim leaves status unchanged")
}

func TestClaimOrderRequiresClaimableStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := insertOrder(t, db, enums.OrderStatusPending, nil, time.Now())
	won, err := repo.ClaimOrder(ctx, pending.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, won)

	preparing := insertOrder(t, db, enums.OrderStatusPreparing, nil, time.Now())
	won, err = repo.ClaimOrder(ctx, preparing.ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, won, "preparing orders may be reserved in advance")
}

func TestListUnassignedPoolMembership(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	older := insertOrder(t, db, enums.OrderStatusReady, nil, base)
	newer := insertOrder(t, db, enums.OrderStatusPreparing, nil, base.Add(10*time.Minute))
	insertOrder(t, db, enums.OrderStatusPending, nil, base.Add(20*time.Minute))
	agent := uuid.New()
	insertOrder(t, db, enums.OrderStatusReady, &agent, base.Add(30*time.Minute))

	page, err := repo.ListUnassigned(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID, "newest first")
	assert.Equal(t, older.ID, page.Items[1].ID)
	assert.Equal(t, int64(2), page.Total)
}

func TestClaimedOrderLeavesPool(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusReady, nil, time.Now())

	won, err := repo.ClaimOrder(ctx, order.ID, uuid.New())
	require.NoError(t, err)
	require.True(t, won)

	page, err := repo.ListUnassigned(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestUpdateOrderIfStatusGuardsStaleWrites(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusPending, nil, time.Now())

	changed, err := repo.UpdateOrderIfStatus(ctx, order.ID, enums.OrderStatusPending,
		map[string]any{"status": enums.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateOrderIfStatus(ctx, order.ID, enums.OrderStatusPending,
		map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.False(t, changed, "stale expectation must not apply")

	stored, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)
}

func TestListByCustomerFiltersStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customer := uuid.New()
	first := insertOrder(t, db, enums.OrderStatusPending, nil, time.Now())
	first.CustomerID = customer
	require.NoError(t, db.Save(first).Error)
	second := insertOrder(t, db, enums.OrderStatusDelivered, nil, time.Now())
	second.CustomerID = customer
	require.NoError(t, db.Save(second).Error)

	status := enums.OrderStatusDelivered
	page, err := repo.ListByCustomer(ctx, customer, ListFilters{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
}
