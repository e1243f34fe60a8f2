package ecs

import "sync"

// EventType identifies different types of events
type EventType string

// Event interface that all events must implement
type Event interface {
	Type() EventType
}

// EventHandler is a function that processes events
type EventHandler func(Event)

// EventManager manages event subscriptions and dispatches.
// Handlers run synchronously on the emitting goroutine, in subscription order.
type EventManager struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewEventManager creates a new event manager
func NewEventManager() *EventManager {
	return &EventManager{
		subscribers: make(map[EventType][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (em *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.subscribers[eventType] = append(em.subscribers[eventType], handler)
}

// Emit dispatches an event to all subscribed handlers
func (em *EventManager) Emit(event Event) {
	em.mu.RLock()
	handlers := em.subscribers[event.Type()]
	em.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

