// Package core - Viewer event hub
// Per-user fan-out of account events with explicit cancellation
package core

import (
	"sync"
	"time"

	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
)

const defaultEventBuffer = 16

// EventHub delivers account events to the signed-in viewer's open streams
type EventHub interface {
	// Subscribe returns a channel of events for the user and a cancel
	// function. Cancel is idempotent and closes the channel.
	Subscribe(userID string) (<-chan models.ViewerEvent, func())
	// Publish never blocks; events for a full subscriber are dropped.
	Publish(userID string, event models.ViewerEvent)
}

type subscription struct {
	ch chan models.ViewerEvent
}

type eventHub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

// NewEventHub creates an in-memory event hub
func NewEventHub() EventHub {
	return &eventHub{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: defaultEventBuffer,
	}
}

func (h *eventHub) Subscribe(userID string) (<-chan models.ViewerEvent, func()) {
	sub := &subscription{ch: make(chan models.ViewerEvent, h.buffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub.ch)
			h.mu.Unlock()
			metrics.EventSubscribers.Dec()
		})
	}
	return sub.ch, cancel
}

func (h *eventHub) Publish(userID string, event models.ViewerEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- event:
		default:
			metrics.EventsDroppedTotal.Inc()
		}
	}
}

func newEvent(eventType string, data map[string]interface{}) models.ViewerEvent {
	return models.ViewerEvent{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}
