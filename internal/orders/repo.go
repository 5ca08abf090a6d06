package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateTrackingRecord(ctx context.Context, record *models.TrackingRecord) (*models.TrackingRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindTrackingByOrder(ctx context.Context, orderID uuid.UUID) (*models.TrackingRecord, error) {
	var record models.TrackingRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateOrderIfStatus(ctx context.Context, id uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ClaimOrder(ctx context.Context, orderID, agentID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND delivery_agent_id IS NULL AND status IN ?", orderID,
			[]enums.OrderStatus{enums.OrderStatusPreparing, enums.OrderStatusReady}).
		Update("delivery_agent_id", agentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.list(ctx, filters, params, "customer_id = ?", customerID)
}

func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.list(ctx, filters, params, "restaurant_id = ?", restaurantID)
}

func (r *repository) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.list(ctx, filters, params, "delivery_agent_id = ?", agentID)
}

func (r *repository) ListUnassigned(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.list(ctx, ListFilters{}, params,
		"delivery_agent_id IS NULL AND status IN ?",
		[]enums.OrderStatus{enums.OrderStatusPreparing, enums.OrderStatusReady})
}

func (r *repository) list(ctx context.Context, filters ListFilters, params pagination.Params, cond string, args ...any) (*pagination.Page[models.Order], error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where(cond, args...)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(rows, total, params)
	return &page, nil
}
