package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/api/responses"
	"github.com/platofoods/plato-backend/api/validators"
	internalorders "github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/logger"
)

type createOrderRequest struct {
	RestaurantID      string  `json:"restaurant_id" validate:"required,uuid"`
	DeliveryAddressID string  `json:"delivery_address_id" validate:"required,uuid"`
	SpecialRequest    *string `json:"special_request" validate:"omitempty,max=500"`
}

type transitionRequest struct {
	Target string `json:"target" validate:"required"`
}

// CreateOrder checks out the requester's active cart into a pending order.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, role, err := requester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.ActorRoleCustomer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only customers place orders"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurantID, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "restaurant_id must be a uuid"))
			return
		}
		addressID, err := uuid.Parse(req.DeliveryAddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delivery_address_id must be a uuid"))
			return
		}

		order, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			CustomerID:        customerID,
			RestaurantID:      restaurantID,
			DeliveryAddressID: addressID,
			SpecialRequest:    req.SpecialRequest,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		requesterID, role, err := requester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, requesterID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TransitionOrder applies a lifecycle status change on behalf of the
// requesting actor. Which edges are legal for which role is the order
// service's concern.
func TransitionOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		requesterID, role, err := requester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status"))
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID:       orderID,
			RequesterID:   requesterID,
			RequesterRole: role,
			Target:        target,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns order history for the requester, scoped by role:
// customers see their own orders, restaurant owners their restaurant's, and
// agents their assigned deliveries.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		requesterID, role, err := requester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch role {
		case enums.ActorRoleCustomer:
			list, err := svc.ListForCustomer(r.Context(), requesterID, filters, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		case enums.ActorRoleRestaurant:
			list, err := svc.ListForRestaurant(r.Context(), requesterID, filters, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		case enums.ActorRoleAgent:
			list, err := svc.ListForAgent(r.Context(), requesterID, filters, params)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted"))
		}
	}
}

func parseOrderFilters(r *http.Request) (internalorders.ListFilters, error) {
	filters := internalorders.ListFilters{}
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return filters, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter").WithDetails(map[string]any{"field": "status"})
	}
	filters.Status = &status
	return filters, nil
}
