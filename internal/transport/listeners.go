package transport

import (
	"slices"
	"sync"
)

// Listeners is a registry of inbound message handlers. Channel implementations
// embed it to provide Subscribe and to fan out each delivered message.
//
// The zero value is ready to use.
type Listeners struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []listenerEntry
}

type listenerEntry struct {
	id      uint64
	handler Handler
}

type subscription struct {
	once      sync.Once
	listeners *Listeners
	id        uint64
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.listeners.remove(s.id)
	})
}

// Subscribe registers handler and returns its subscription.
func (l *Listeners) Subscribe(handler Handler) Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.entries = append(l.entries, listenerEntry{id: l.nextID, handler: handler})

	return &subscription{listeners: l, id: l.nextID}
}

// Dispatch invokes every registered handler with msg, in subscription order.
//
// Handlers run outside the registry lock, so a handler may subscribe or
// unsubscribe. Membership is taken when Dispatch starts.
func (l *Listeners) Dispatch(msg any) {
	l.mu.RLock()
	entries := slices.Clone(l.entries)
	l.mu.RUnlock()

	for _, e := range entries {
		e.handler(msg)
	}
}

// Count returns the number of registered handlers.
func (l *Listeners) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

func (l *Listeners) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = slices.DeleteFunc(l.entries, func(e listenerEntry) bool {
		return e.id == id
	})
}
