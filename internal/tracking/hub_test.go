package tracking

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platofoods/plato-backend/pkg/enums"
)

func locationUpdate(orderID uuid.UUID) Update {
	return Update{
		OrderID: orderID,
		Kind:    UpdateKindLocation,
		Location: &LocationPing{
			Lat: 40.0, Lon: -3.0,
			DistanceRemainingKm: 2.5,
			Phase:               enums.TrackingPhaseEnRoute,
		},
		At: time.Now(),
	}
}

func TestHubFanOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	a := hub.Subscribe(orderID, "customer-1")
	b := hub.Subscribe(orderID, "restaurant-1")

	hub.Publish(locationUpdate(orderID))

	for _, ch := range []<-chan Update{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, orderID, got.OrderID)
			assert.Equal(t, UpdateKindLocation, got.Kind)
		default:
			t.Fatal("subscriber did not receive update")
		}
	}
}

func TestHubIsolatesOrders(t *testing.T) {
	hub := NewHub()
	orderA := uuid.New()
	orderB := uuid.New()

	chA := hub.Subscribe(orderA, "sub")
	hub.Subscribe(orderB, "sub")

	hub.Publish(locationUpdate(orderB))

	select {
	case <-chA:
		t.Fatal("subscriber of another order must not receive the update")
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	ch := hub.Subscribe(orderID, "sub")
	hub.Unsubscribe(orderID, "sub")

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount(orderID))
}

func TestHubDropsDeadSubscriberWithoutBlocking(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	dead := hub.Subscribe(orderID, "dead")
	live := hub.Subscribe(orderID, "live")

	// Fill the dead subscriber's buffer, then publish once more. The sender
	// must not block and the dead subscriber must be removed.
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(locationUpdate(orderID))
		// keep the live one drained so it stays registered
		select {
		case <-live:
		default:
		}
	}

	done := make(chan struct{})
	go func() {
		hub.Publish(locationUpdate(orderID))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a dead subscriber")
	}

	assert.Equal(t, 1, hub.SubscriberCount(orderID), "dead subscriber dropped")

	// The dropped subscriber's channel is closed after its buffer drains.
	drained := 0
	for range dead {
		drained++
	}
	require.LessOrEqual(t, drained, subscriberBuffer)
}

func TestHubResubscribeReplacesChannel(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	old := hub.Subscribe(orderID, "sub")
	fresh := hub.Subscribe(orderID, "sub")

	_, open := <-old
	assert.False(t, open, "previous channel closed on re-subscribe")

	hub.Publish(locationUpdate(orderID))
	select {
	case got := <-fresh:
		assert.Equal(t, orderID, got.OrderID)
	default:
		t.Fatal("fresh channel did not receive update")
	}
	assert.Equal(t, 1, hub.SubscriberCount(orderID))
}

func TestHubPublishSafeDuringSubscriberChurn(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	stop := make(chan struct{})
	var wg sync.WaitGroup

	// Publishers hammer the order while subscribers come and go. A send must
	// never hit a channel closed by a concurrent unsubscribe.
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish(locationUpdate(orderID))
				}
			}
		}()
	}

	for s := 0; s < 2; s++ {
		subscriberID := "churner-" + uuid.NewString()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					ch := hub.Subscribe(orderID, subscriberID)
					select {
					case <-ch:
					default:
					}
					hub.Unsubscribe(orderID, subscriberID)
				}
			}
		}()
	}

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestBroadcastStatus(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	ch := hub.Subscribe(orderID, "sub")
	hub.BroadcastStatus(orderID, enums.OrderStatusPending, enums.OrderStatusConfirmed)

	select {
	case got := <-ch:
		assert.Equal(t, UpdateKindStatus, got.Kind)
		require.NotNil(t, got.Status)
		assert.Equal(t, enums.OrderStatusPending, got.Status.From)
		assert.Equal(t, enums.OrderStatusConfirmed, got.Status.To)
	default:
		t.Fatal("status broadcast not delivered")
	}
}
