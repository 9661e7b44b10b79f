package ecs

import (
	"testing"

	"github.com/spaghettimaker/spaghetti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	require.NotNil(t, NewDonburiSink(world))
}

func TestDonburiSink_SceneEvents(t *testing.T) {
	world := donburi.NewWorld()
	scene := spaghetti.NewScene("main")
	scene.SetEventSink(NewDonburiSink(world))

	var received []spaghetti.SceneEvent
	SceneEventType.Subscribe(world, func(w donburi.World, e spaghetti.SceneEvent) {
		received = append(received, e)
	})

	a := scene.CreateEntity("A", nil)
	b := scene.CreateEntity("B", nil)
	require.NoError(t, b.SetParent(a))
	scene.Start()
	scene.DestroyEntity(a)

	// Events are queued until processed.
	assert.Empty(t, received)
	SceneEventType.ProcessEvents(world)

	kinds := make([]spaghetti.EventKind, len(received))
	for i, e := range received {
		kinds[i] = e.Kind
		assert.Equal(t, "main", e.Scene)
	}
	assert.Equal(t, []spaghetti.EventKind{
		spaghetti.EventEntityCreated,
		spaghetti.EventEntityCreated,
		spaghetti.EventEntityReparented,
		spaghetti.EventScenePlay,
		spaghetti.EventEntityDestroyed,
		spaghetti.EventEntityDestroyed,
	}, kinds)

	assert.Equal(t, a.ID(), received[2].Parent)
	assert.Equal(t, "B", received[4].Name, "children are destroyed first")
	assert.Equal(t, "A", received[5].Name)
}

func TestDonburiSink_FiltersKinds(t *testing.T) {
	world := donburi.NewWorld()
	scene := spaghetti.NewScene("main")
	scene.SetEventSink(NewDonburiSink(world, spaghetti.EventEntityDestroyed))

	var names []string
	SceneEventType.Subscribe(world, func(w donburi.World, e spaghetti.SceneEvent) {
		names = append(names, e.Name)
	})

	a := scene.CreateEntity("A", nil)
	scene.CreateEntity("B", nil)
	scene.Start()
	scene.DestroyEntity(a)
	SceneEventType.ProcessEvents(world)

	assert.Equal(t, []string{"A"}, names)
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	SceneEventType.Subscribe(world, func(w donburi.World, e spaghetti.SceneEvent) {
		count1++
	})
	SceneEventType.Subscribe(world, func(w donburi.World, e spaghetti.SceneEvent) {
		count2++
	})

	sink.EmitEvent(spaghetti.SceneEvent{Kind: spaghetti.EventSelectionChanged})
	events.ProcessAllEvents(world)

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}
