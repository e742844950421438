package pubsub

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeNotice tells a connected device that another device committed a
// mutation and a pull is worthwhile. Notices are published only after the
// underlying transaction commits; they carry no payload, the device pulls
// the change feed for data.
type ChangeNotice struct {
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Version    int       `json:"version"`
	DeviceID   string    `json:"device_id"`
	SessionID  uuid.UUID `json:"session_id"`
	At         time.Time `json:"at"`
}

// Hub fans committed-change notices out to a user's connected devices.
type Hub struct {
	subscriptions    map[uuid.UUID][]chan ChangeNotice
	subscriptionsMux sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[uuid.UUID][]chan ChangeNotice),
	}
}

// Subscribe registers a notice channel for a user.
func (h *Hub) Subscribe(userID uuid.UUID, ch chan ChangeNotice) {
	h.subscriptionsMux.Lock()
	defer h.subscriptionsMux.Unlock()

	h.subscriptions[userID] = append(h.subscriptions[userID], ch)
}

// Unsubscribe removes a notice channel for a user.
func (h *Hub) Unsubscribe(userID uuid.UUID, ch chan ChangeNotice) {
	h.subscriptionsMux.Lock()
	defer h.subscriptionsMux.Unlock()

	subs := h.subscriptions[userID]
	for i, sub := range subs {
		if sub == ch {
			h.subscriptions[userID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscriptions[userID]) == 0 {
		delete(h.subscriptions, userID)
	}
}

// Publish sends a notice to all subscribers for a user. Slow subscribers
// are skipped, never blocked on; a missed notice is recovered by the next
// pull.
func (h *Hub) Publish(userID uuid.UUID, notice ChangeNotice) {
	h.subscriptionsMux.RLock()
	defer h.subscriptionsMux.RUnlock()

	if subs, ok := h.subscriptions[userID]; ok {
		for _, ch := range subs {
			select {
			case ch <- notice:
			default:
				// Channel full, skip
			}
		}
	}
}
