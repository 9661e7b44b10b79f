package ecs

import (
	"github.com/spaghettimaker/spaghetti"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType carries spaghetti scene events through a Donburi world.
// Published events stay queued until the world processes them.
var SceneEventType = events.NewEventType[spaghetti.SceneEvent]()

type donburiSink struct {
	world donburi.World
	kinds map[spaghetti.EventKind]bool
}

// NewDonburiSink returns an EventSink that queues scene events on world
// under SceneEventType. With kinds given, only those kinds are queued; the
// rest are dropped before they reach the world.
func NewDonburiSink(world donburi.World, kinds ...spaghetti.EventKind) spaghetti.EventSink {
	s := &donburiSink{world: world}
	if len(kinds) > 0 {
		s.kinds = make(map[spaghetti.EventKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	return s
}

func (s *donburiSink) EmitEvent(event spaghetti.SceneEvent) {
	if s.kinds != nil && !s.kinds[event.Kind] {
		return
	}
	SceneEventType.Publish(s.world, event)
}
