package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.TrackingRecord, error) {
	var record models.TrackingRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.TrackingRecord{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}
