package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/outbox"
	pkgredis "github.com/platofoods/plato-backend/pkg/redis"
)

const consumerScope = "order-events"

// Consumer watches the order events topic and pushes customer and courier
// notifications for lifecycle changes. Delivery here means handing off to
// the notification channel; the broker redelivers on nack, so processing
// dedupes on event id first.
type Consumer struct {
	subscription *pubsub.Subscriber
	dedupe       pkgredis.IdempotencyStore
	dedupeTTL    time.Duration
	logg         *logger.Logger
}

func NewConsumer(subscription *pubsub.Subscriber, dedupe pkgredis.IdempotencyStore, dedupeTTL time.Duration, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("order events subscription required")
	}
	if dedupe == nil {
		return nil, fmt.Errorf("dedupe store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if dedupeTTL <= 0 {
		dedupeTTL = 24 * time.Hour
	}
	return &Consumer{
		subscription: subscription,
		dedupe:       dedupe,
		dedupeTTL:    dedupeTTL,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.Process(ctx, msg)
		if result.Nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// ProcessResult reports how the broker message should be settled.
type ProcessResult struct {
	Ack  bool
	Nack bool
}

// Process handles one broker message. Malformed payloads are acked and
// dropped; only infrastructure failures nack for redelivery.
func (c *Consumer) Process(ctx context.Context, msg *pubsub.Message) ProcessResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch enums.OutboxEventType(eventType) {
	case enums.EventOrderCreated, enums.EventOrderStatusChanged, enums.EventOrderAssigned, enums.EventOrderPaymentRecorded:
	default:
		c.logg.Info(logCtx, "skipping unhandled event type")
		return ProcessResult{Ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return ProcessResult{Ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "envelope carries no usable event id", err)
		return ProcessResult{Ack: true}
	}

	key := c.dedupe.IdempotencyKey(consumerScope, eventID.String())
	fresh, err := c.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.dedupeTTL)
	if err != nil {
		c.logg.Error(logCtx, "dedupe check failed", err)
		return ProcessResult{Nack: true}
	}
	if !fresh {
		c.logg.Info(c.logg.WithField(logCtx, "event_id", eventID.String()), "duplicate event, already notified")
		return ProcessResult{Ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":     eventID.String(),
		"aggregate_id": msg.Attributes["aggregate_id"],
	})

	switch enums.OutboxEventType(eventType) {
	case enums.EventOrderCreated:
		c.logg.Info(logCtx, "notify restaurant: new order placed")
	case enums.EventOrderStatusChanged:
		var data outbox.OrderStatusChangedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			c.logg.Error(logCtx, "failed to decode status change", err)
			return ProcessResult{Ack: true}
		}
		logCtx = c.logg.WithFields(logCtx, map[string]any{
			"from": data.From,
			"to":   data.To,
		})
		c.logg.Info(logCtx, "notify customer: order status changed")
	case enums.EventOrderAssigned:
		c.logg.Info(logCtx, "notify customer: courier assigned")
	case enums.EventOrderPaymentRecorded:
		c.logg.Info(logCtx, "notify customer: payment recorded")
	}

	return ProcessResult{Ack: true}
}
