package ecs

import (
	"image"
	"testing"

	"github.com/phanxgames/retouch"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func newEngine(t *testing.T) *retouch.Engine {
	t.Helper()
	e, err := retouch.New(retouch.NewSoftwareBackend(), retouch.Config{CanvasWidth: 64, CanvasHeight: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Destroy)
	return e
}

func TestBridgeForwardsEvents(t *testing.T) {
	world := donburi.NewWorld()
	e := newEngine(t)
	bridge := NewBridge(e, world)
	defer bridge.Close()

	var received []retouch.Event
	EngineEventType.Subscribe(world, func(w donburi.World, ev retouch.Event) {
		received = append(received, ev)
	})

	if err := e.Reset(image.NewNRGBA(image.Rect(0, 0, 32, 16))); err != nil {
		t.Fatal(err)
	}
	e.SwitchMode(retouch.ModeGray)

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("delivered before ProcessEvents: %d", len(received))
	}
	EngineEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != retouch.EventReset || received[0].Display.W != 64 {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Type != retouch.EventModeChange || received[1].Mode != retouch.ModeGray {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestBridgeFiltersTypes(t *testing.T) {
	world := donburi.NewWorld()
	e := newEngine(t)
	NewBridge(e, world, retouch.EventModeChange)

	count := 0
	EngineEventType.Subscribe(world, func(w donburi.World, ev retouch.Event) {
		count++
	})

	e.Reset(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	e.SwitchMode(retouch.ModeColor)
	events.ProcessAllEvents(world)

	if count != 1 {
		t.Errorf("expected 1 forwarded event, got %d", count)
	}
}

func TestBridgeClose(t *testing.T) {
	world := donburi.NewWorld()
	e := newEngine(t)
	bridge := NewBridge(e, world)
	bridge.Close()

	count := 0
	EngineEventType.Subscribe(world, func(w donburi.World, ev retouch.Event) {
		count++
	})
	e.SwitchMode(retouch.ModeColor)
	events.ProcessAllEvents(world)

	if count != 0 {
		t.Errorf("closed bridge forwarded %d events", count)
	}
}
