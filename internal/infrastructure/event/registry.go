package event

import (
	"sync"

	"github.com/clientdesk/backend/internal/domain/shared"
)

// HandlerRegistry tracks which handlers are subscribed to which event types.
// Registering with no event types subscribes the handler to every event.
type HandlerRegistry struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
	all    []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		byType: make(map[string][]shared.EventHandler),
	}
}

// Register subscribes a handler to the given event types, or to all
// events when none are given.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.all = append(r.all, handler)
		return
	}
	for _, et := range eventTypes {
		r.byType[et] = append(r.byType[et], handler)
	}
}

// Unregister removes a handler from every subscription
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.all = without(r.all, handler)
	for et, hs := range r.byType {
		if remaining := without(hs, handler); len(remaining) > 0 {
			r.byType[et] = remaining
		} else {
			delete(r.byType, et)
		}
	}
}

// GetHandlers returns the handlers subscribed to an event type, with the
// type-specific subscriptions ahead of the catch-all ones.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(r.all))
	out = append(out, typed...)
	return append(out, r.all...)
}

// GetAllHandlers returns every registered handler once
func (r *HandlerRegistry) GetAllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]bool)
	out := make([]shared.EventHandler, 0, len(r.all))
	collect := func(hs []shared.EventHandler) {
		for _, h := range hs {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	collect(r.all)
	for _, hs := range r.byType {
		collect(hs)
	}
	return out
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := handlers[:0:0]
	for _, h := range handlers {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
