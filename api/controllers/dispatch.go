package controllers

import (
	"net/http"

	"github.com/platofoods/plato-backend/api/responses"
	"github.com/platofoods/plato-backend/api/validators"
	"github.com/platofoods/plato-backend/internal/dispatch"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/logger"
)

// AgentOrderQueue returns the paginated pool of unassigned orders an agent
// may claim.
func AgentOrderQueue(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAvailable(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AgentClaimOrder races the requesting agent against everyone else for one
// order. Losing the race surfaces as a conflict, not a server error.
func AgentClaimOrder(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		agentID, _, err := requester(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Claim(r.Context(), orderID, agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
