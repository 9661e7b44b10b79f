package spaghetti

// SceneEvent describes a structural or lifecycle change in a Scene.
type SceneEvent struct {
	Kind  EventKind
	Scene string
	// Entity is the entity the event is about, NoEntity for scene-wide
	// events.
	Entity EntityID
	Name   string
	// Parent is the new parent for EventEntityReparented and
	// EventEntityCreated.
	Parent EntityID
	// Component is the component display name for component events.
	Component string
}

// EventSink receives scene events. When set on a Scene, every event is
// forwarded synchronously.
type EventSink interface {
	EmitEvent(event SceneEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(SceneEvent)

// EmitEvent implements EventSink.
func (f EventSinkFunc) EmitEvent(event SceneEvent) { f(event) }

// SetEventSink sets the optional event sink. nil disables forwarding.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

func (s *Scene) emit(ev SceneEvent) {
	if s.sink == nil {
		return
	}
	ev.Scene = s.name
	if ev.Name == "" && ev.Entity != NoEntity {
		if e := s.Lookup(ev.Entity); e != nil {
			ev.Name = e.name
		}
	}
	s.sink.EmitEvent(ev)
}
