package bus

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventNameAcquired      EventType = "name_acquired"
	EventNameReleased      EventType = "name_released"
	EventMenuExported      EventType = "menu_exported"
	EventMenuUnexported    EventType = "menu_unexported"
	EventMenuChanged       EventType = "menu_changed"
	EventActionsExported   EventType = "actions_exported"
	EventActionsUnexported EventType = "actions_unexported"
	EventActionsChanged    EventType = "actions_changed"
)

type Event struct {
	Type         EventType     `json:"type"`
	At           time.Time     `json:"at"`
	Name         string        `json:"name,omitempty"`
	Path         string        `json:"path,omitempty"`
	Handle       Handle        `json:"handle,omitempty"`
	MenuChanges  []MenuChange  `json:"menu_changes,omitempty"`
	ActionChange *ActionChange `json:"action_change,omitempty"`
}

// publish fans event out to every subscriber without waiting on any of them.
func (mb *MessageBus) publish(event Event) bool {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed() {
		return false
	}

	for _, ch := range mb.eventSubscribers {
		select {
		case ch <- event:
		default:
			// slow subscriber, drop
		}
	}
	return true
}

// SubscribeEvents registers a buffered event channel. It is closed by the
// returned function, by ctx ending or by Close.
func (mb *MessageBus) SubscribeEvents(ctx context.Context, buffer int) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = defaultBufferSize
	}

	ch := make(chan Event, buffer)

	mb.mu.Lock()
	select {
	case <-mb.done:
		mb.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}

	id := mb.nextEventSubscriberID
	mb.nextEventSubscriberID++
	mb.eventSubscribers[id] = ch
	mb.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			mb.mu.Lock()
			if eventCh, ok := mb.eventSubscribers[id]; ok {
				delete(mb.eventSubscribers, id)
				close(eventCh)
			}
			mb.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-mb.done:
			unsubscribe()
		}
	}()

	return ch, unsubscribe
}
