package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/pkg/db/models"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

// Service exposes read operations over the restaurant catalog.
type Service interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, params pagination.Params) (*pagination.Page[models.Restaurant], error)
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*pagination.Page[models.MenuItem], error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog read service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	restaurant, err := s.repo.FindRestaurant(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	return restaurant, nil
}

func (s *service) ListRestaurants(ctx context.Context, params pagination.Params) (*pagination.Page[models.Restaurant], error) {
	page, err := s.repo.ListRestaurants(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurants")
	}
	return page, nil
}

func (s *service) ListMenuItems(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) (*pagination.Page[models.MenuItem], error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	page, err := s.repo.ListMenuItems(ctx, restaurantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing menu items")
	}
	return page, nil
}
