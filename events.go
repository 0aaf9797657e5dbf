package retouch

// Event carries an engine notification.
type Event struct {
	Type EventType
	// Mode and PrevMode are set for EventModeChange.
	Mode, PrevMode Mode
	// Display is the fitted image size, set for EventReset.
	Display Size
	// Bytes is the encoded payload size, set for EventOutput.
	Bytes int
}

// SubscriptionID identifies a callback registered with EventBus.On. Zero is
// never issued.
type SubscriptionID uint32

type subscription struct {
	id SubscriptionID
	fn func(Event)
}

// EventBus dispatches engine notifications to subscribers.
type EventBus struct {
	handlers map[EventType][]subscription
	nextID   SubscriptionID
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]subscription)}
}

// On registers fn for events of type t and returns its id.
func (b *EventBus) On(t EventType, fn func(Event)) SubscriptionID {
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], subscription{id: id, fn: fn})
	return id
}

// Off unregisters the callback with the given id. Unknown ids are ignored.
func (b *EventBus) Off(t EventType, id SubscriptionID) {
	s := b.handlers[t]
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = subscription{}
			b.handlers[t] = s[:len(s)-1]
			return
		}
	}
}

// Emit calls every subscriber of e.Type in registration order. Subscribers
// may call On or Off while being notified.
func (b *EventBus) Emit(e Event) {
	subs := append([]subscription(nil), b.handlers[e.Type]...)
	for _, s := range subs {
		s.fn(e)
	}
}

// Len returns the number of subscribers for t.
func (b *EventBus) Len(t EventType) int {
	return len(b.handlers[t])
}

// Clear removes every subscriber.
func (b *EventBus) Clear() {
	for t := range b.handlers {
		delete(b.handlers, t)
	}
}
