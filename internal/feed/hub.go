package feed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
)

const subscriberBuffer = 8

// Hub fans balance snapshots out to the subscribers of each user.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan domain.BalanceSnapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan domain.BalanceSnapshot]struct{}),
	}
}

// Subscribe registers a listener for userID. The returned func removes it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan domain.BalanceSnapshot, func()) {
	ch := make(chan domain.BalanceSnapshot, subscriberBuffer)

	h.mu.Lock()
	if _, ok := h.subscribers[userID]; !ok {
		h.subscribers[userID] = make(map[chan domain.BalanceSnapshot]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[userID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish delivers s to every subscriber of s.UserID. A subscriber that
// fell behind loses its oldest pending snapshot.
func (h *Hub) Publish(s domain.BalanceSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[s.UserID] {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
				zap.L().Warn("dropping balance snapshot", zap.String("userID", s.UserID.String()))
			}
		}
	}
}

func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
