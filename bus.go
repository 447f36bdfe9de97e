package session

import "sync"

// Handler consumes a published event. Handlers run synchronously on the
// publisher's goroutine; a panicking handler is isolated and does not prevent
// delivery to the handlers registered after it.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a typed publish/subscribe channel with no persistence and no replay:
// a subscriber registered after an event fired never sees it. One Bus per
// Engine; independent instances are not coordinated.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
	logger Logger
}

// NewBus returns an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   map[string][]subscription{},
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BusOption customizes bus construction.
type BusOption func(*Bus)

// WithBusLogger sets the logger handler panics are reported through.
func WithBusLogger(logger Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Subscribe registers a handler for one event name and returns its
// unsubscribe function. Delivery order follows registration order.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[name]
		for i, sub := range current {
			if sub.id == id {
				b.subs[name] = append(current[:i:i], current[i+1:]...)
				break
			}
		}
	}
}

// SubscribeEvents registers one handler for several event names and returns a
// single unsubscribe function covering all of them.
func (b *Bus) SubscribeEvents(handler Handler, names ...string) func() {
	offs := make([]func(), 0, len(names))
	for _, name := range names {
		offs = append(offs, b.Subscribe(name, handler))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Publish delivers the event synchronously, in subscription order, to every
// currently registered handler for its name.
func (b *Bus) Publish(event Event) {
	if event == nil {
		return
	}

	b.mu.Lock()
	current := b.subs[event.EventName()]
	handlers := make([]subscription, len(current))
	copy(handlers, current)
	b.mu.Unlock()

	for _, sub := range handlers {
		b.dispatch(event, sub.handler)
	}
}

func (b *Bus) dispatch(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic", "event", event.EventName(), "panic", r)
		}
	}()
	handler(event)
}
