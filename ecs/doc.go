// Package ecs forwards spaghetti scene events into ECS worlds.
//
// The primary adapter is [NewDonburiSink], which bridges scene events (entity
// created, destroyed or reparented, component added or removed, play state
// changes, selection) into a [Donburi] world as typed events. Subscribe to
// [SceneEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	scene.SetEventSink(sink)
//	...
//	ecs.SceneEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
