package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// subscriberBuffer gives a live but momentarily slow subscriber some slack.
// A subscriber that stopped draining fills it and gets dropped.
const subscriberBuffer = 16

// UpdateKind discriminates what a hub update carries.
type UpdateKind string

const (
	UpdateKindLocation UpdateKind = "location"
	UpdateKindStatus   UpdateKind = "status"
)

// LocationPing is the live agent position with the derived remaining leg.
type LocationPing struct {
	Lat                 float64             `json:"lat"`
	Lon                 float64             `json:"lon"`
	DistanceRemainingKm float64             `json:"distance_remaining_km"`
	Phase               enums.TrackingPhase `json:"phase"`
}

// StatusChange mirrors an order state machine edge.
type StatusChange struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}

// Update is the fan-out payload delivered to every live subscriber of one
// order.
type Update struct {
	OrderID  uuid.UUID     `json:"order_id"`
	Kind     UpdateKind    `json:"kind"`
	Location *LocationPing `json:"location,omitempty"`
	Status   *StatusChange `json:"status,omitempty"`
	At       time.Time     `json:"at"`
}

// Hub is the in-process fan-out channel: per-order subscriber sets with
// fire-and-forget delivery. All coordination is keyed by order id, so
// unrelated orders never contend.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[string]chan Update
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[string]chan Update)}
}

// Subscribe registers subscriberID for one order and returns its receive
// channel. Re-subscribing with the same id replaces the previous channel.
func (h *Hub) Subscribe(orderID uuid.UUID, subscriberID string) <-chan Update {
	ch := make(chan Update, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[orderID]
	if !ok {
		set = make(map[string]chan Update)
		h.subs[orderID] = set
	}
	if prev, exists := set[subscriberID]; exists {
		close(prev)
	}
	set[subscriberID] = ch
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(orderID uuid.UUID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(orderID, subscriberID)
}

// Publish delivers the update to every live subscriber of the order without
// ever blocking the caller. A subscriber whose buffer is full is considered
// dead and dropped. The sends happen under the read lock: channels are only
// closed under the write lock, so a concurrent unsubscribe cannot close a
// channel mid-send.
func (h *Hub) Publish(update Update) {
	type staleSub struct {
		id string
		ch chan Update
	}

	h.mu.RLock()
	var dead []staleSub
	for id, ch := range h.subs[update.OrderID] {
		select {
		case ch <- update:
		default:
			dead = append(dead, staleSub{id: id, ch: ch})
		}
	}
	h.mu.RUnlock()

	if len(dead) > 0 {
		h.mu.Lock()
		for _, stale := range dead {
			// Drop only if the id still maps to the same channel; it may have
			// unsubscribed or re-subscribed since the lock was released.
			if set, ok := h.subs[update.OrderID]; ok && set[stale.id] == stale.ch {
				h.dropLocked(update.OrderID, stale.id)
			}
		}
		h.mu.Unlock()
	}
}

// BroadcastStatus publishes an order state machine edge to the order's
// subscribers.
func (h *Hub) BroadcastStatus(orderID uuid.UUID, from, to enums.OrderStatus) {
	h.Publish(Update{
		OrderID: orderID,
		Kind:    UpdateKindStatus,
		Status:  &StatusChange{From: from, To: to},
		At:      time.Now(),
	})
}

// SubscriberCount reports the live subscriber count for an order.
func (h *Hub) SubscriberCount(orderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

func (h *Hub) dropLocked(orderID uuid.UUID, subscriberID string) {
	set, ok := h.subs[orderID]
	if !ok {
		return
	}
	ch, exists := set[subscriberID]
	if !exists {
		return
	}
	close(ch)
	delete(set, subscriberID)
	if len(set) == 0 {
		delete(h.subs, orderID)
	}
}
