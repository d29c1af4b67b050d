package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// NotificationHub fans notifications out to in-process subscribers (the
// websocket transport). Delivery is best-effort: the durable copy lives in
// the store.
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan domain.Notification]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[uuid.UUID]map[chan domain.Notification]struct{}),
	}
}

// Subscribe returns a channel receiving the user's notifications.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *NotificationHub) Subscribe(userID uuid.UUID) (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification, 8)

	h.mu.Lock()
	if _, ok := h.subscribers[userID]; !ok {
		h.subscribers[userID] = make(map[chan domain.Notification]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[userID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a notification to the user's live subscribers. A slow
// subscriber has its oldest pending update dropped rather than blocking the
// publisher.
func (h *NotificationHub) Publish(n domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[n.UserID] {
		select {
		case ch <- n:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
}

// NotificationDispatcher persists notifications and mirrors them to the hub.
type NotificationDispatcher struct {
	store QuizStore
	hub   *NotificationHub
	clock func() time.Time
}

func NewNotificationDispatcher(store QuizStore, hub *NotificationHub) *NotificationDispatcher {
	return &NotificationDispatcher{store: store, hub: hub, clock: time.Now}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, userID uuid.UUID, title, body string) error {
	n := domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: d.clock(),
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return err
	}
	if d.hub != nil {
		d.hub.Publish(n)
	}
	return nil
}
