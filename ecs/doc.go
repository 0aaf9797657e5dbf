// Package ecs forwards retouch engine notifications into a [Donburi] world.
//
// [NewBridge] subscribes to an engine and republishes mode changes, resets
// and outputs as typed Donburi events. Subscribe to [EngineEventType] in
// your ECS systems and drain the queue with ProcessEvents:
//
//	bridge := ecs.NewBridge(engine, world)
//	defer bridge.Close()
//	ecs.EngineEventType.Subscribe(world, onEngineEvent)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
