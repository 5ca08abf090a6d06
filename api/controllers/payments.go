package controllers

import (
	"net/http"

	"github.com/platofoods/plato-backend/api/responses"
	"github.com/platofoods/plato-backend/api/validators"
	internalorders "github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/logger"
)

type paymentCallbackRequest struct {
	Status      string `json:"status" validate:"required,oneof=unpaid paid refunded"`
	AmountCents int    `json:"amount_cents" validate:"omitempty,min=0"`
	Reference   string `json:"reference" validate:"omitempty,max=128"`
}

// RecordPayment is the internal callback the payment collaborator posts
// after settling a charge. It is mounted on the internal route group, not
// the public surface.
func RecordPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req paymentCallbackRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status"))
			return
		}

		order, err := svc.RecordPayment(r.Context(), internalorders.RecordPaymentInput{
			OrderID:     orderID,
			Status:      status,
			AmountCents: req.AmountCents,
			Reference:   req.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
