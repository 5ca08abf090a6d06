package dispatch

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/pkg/db/models"
	"github.com/platofoods/plato-backend/pkg/enums"
	pkgerrors "github.com/platofoods/plato-backend/pkg/errors"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/metrics"
	"github.com/platofoods/plato-backend/pkg/outbox"
	"github.com/platofoods/plato-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the dispatch pool: the derived set of claimable orders and
// the claim operation itself.
type Service interface {
	ListAvailable(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error)
	Claim(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    orders.Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.DispatchMetrics
	logg    *logger.Logger
}

// NewService wires the dispatch pool service.
func NewService(repo orders.Repository, tx txRunner, outboxSvc outboxPublisher, m *metrics.DispatchMetrics, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, outbox: outboxSvc, metrics: m, logg: logg}
}

func (s *service) ListAvailable(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error) {
	page, err := s.repo.ListUnassigned(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing dispatch pool")
	}
	return page, nil
}

// Claim resolves the race between concurrent agents with one conditional
// write. Losing is ordinary control flow here, not an exceptional state.
func (s *service) Claim(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		claimed, claimErr := txRepo.ClaimOrder(ctx, orderID, agentID)
		if claimErr != nil {
			return claimErr
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already assigned")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderAssigned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: agentID.String(), Role: enums.ActorRoleAgent},
			Data:          outbox.OrderAssignedData{OrderID: orderID, DeliveryAgentID: agentID},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			if appErr.Code() == pkgerrors.CodeConflict {
				s.metrics.IncClaimLost(order.Status.String())
			}
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming order")
	}

	s.metrics.IncClaimWon(order.Status.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"agent_id": agentID.String(),
	})
	s.logg.Info(logCtx, "order claimed")

	claimedOrder, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	return claimedOrder, nil
}
