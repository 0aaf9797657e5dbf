package ecs

import (
	"github.com/phanxgames/retouch"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EngineEventType is the Donburi event type carrying retouch engine events.
var EngineEventType = events.NewEventType[retouch.Event]()

var allTypes = []retouch.EventType{
	retouch.EventModeChange,
	retouch.EventReset,
	retouch.EventOutput,
}

// Bridge republishes engine events into a Donburi world.
type Bridge struct {
	engine *retouch.Engine
	subs   map[retouch.EventType]retouch.SubscriptionID
}

// NewBridge subscribes to the given event types on engine, or to every type
// when none are listed. Events are queued on world until processed.
func NewBridge(engine *retouch.Engine, world donburi.World, types ...retouch.EventType) *Bridge {
	if len(types) == 0 {
		types = allTypes
	}
	b := &Bridge{engine: engine, subs: make(map[retouch.EventType]retouch.SubscriptionID, len(types))}
	for _, t := range types {
		if _, dup := b.subs[t]; dup {
			continue
		}
		b.subs[t] = engine.On(t, func(e retouch.Event) {
			EngineEventType.Publish(world, e)
		})
	}
	return b
}

// Close unsubscribes the bridge from its engine.
func (b *Bridge) Close() {
	for t, id := range b.subs {
		b.engine.Off(t, id)
	}
	clear(b.subs)
}
