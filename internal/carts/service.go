package carts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/internal/catalog"
	"github.com/platofoods/plato-backend/pkg/db/models"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
)

// AddItemInput captures the data required to put a menu item in a cart.
type AddItemInput struct {
	CustomerID          uuid.UUID
	MenuItemID          uuid.UUID
	Qty                 int
	ExcludedIngredients []string
}

// Service exposes cart mutations for the customer surface.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

// NewService builds the cart service.
func NewService(repo Repository, catalogRepo catalog.Repository) Service {
	return &service{repo: repo, catalog: catalogRepo}
}

func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.repo.Create(ctx, &models.CartRecord{CustomerID: customerID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.CartRecord, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	item, err := s.catalog.FindMenuItem(ctx, input.MenuItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu item")
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item unavailable")
	}

	cart, err := s.GetCart(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	// One restaurant per cart. Switching restaurants empties the cart first.
	if cart.RestaurantID != nil && *cart.RestaurantID != item.RestaurantID {
		if err := s.repo.Clear(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}
	}
	if cart.RestaurantID == nil || *cart.RestaurantID != item.RestaurantID {
		rid := item.RestaurantID
		if err := s.repo.SetRestaurant(ctx, cart.ID, &rid); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "binding cart restaurant")
		}
	}

	row := &models.CartItem{
		CartID:              cart.ID,
		MenuItemID:          item.ID,
		Qty:                 input.Qty,
		ExcludedIngredients: input.ExcludedIngredients,
	}
	if err := s.repo.AddItem(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
	}

	return s.repo.FindByCustomer(ctx, input.CustomerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := 0
	for _, it := range cart.Items {
		if it.ID == itemID {
			found = true
			continue
		}
		remaining++
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if err := s.repo.RemoveItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	if remaining == 0 {
		if err := s.repo.SetRestaurant(ctx, cart.ID, nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unbinding cart restaurant")
		}
	}

	return s.repo.FindByCustomer(ctx, customerID)
}
