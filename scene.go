package spaghetti

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultTickRate = 60
	rootName        = "Scene Root"
)

// entitySlot is one arena cell. gen is bumped each time the slot is freed so
// stale EntityIDs stop resolving.
type entitySlot struct {
	entity *Entity
	gen    uint32
}

// Scene owns an entity arena, a registry of every live entity in creation
// order, the play state and the editor selection.
//
// All entities hang below a root entity created with the scene. Update and
// Render walk that tree; Start walks the registry.
type Scene struct {
	name string
	root *Entity

	slots    []entitySlot
	free     []uint32
	registry []EntityID

	selected EntityID
	playing  bool
	paused   bool
	closed   bool

	ctx    *RenderContext
	sink   EventSink
	camera *Camera
	dt     float64
	debug  bool

	lastStats RenderStats
}

// NewScene creates a stopped scene with a root entity named "Scene Root".
func NewScene(name string) *Scene {
	s := &Scene{
		name:   name,
		camera: NewCamera(),
		dt:     1.0 / defaultTickRate,
	}
	s.root = s.allocEntity(rootName)
	return s
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// SetName renames the scene.
func (s *Scene) SetName(name string) { s.name = name }

// Root returns the root entity.
func (s *Scene) Root() *Entity { return s.root }

// Camera returns the scene's main camera.
func (s *Scene) Camera() *Camera { return s.camera }

// SetRenderContext sets the context used for buffer uploads and drawing.
func (s *Scene) SetRenderContext(ctx *RenderContext) { s.ctx = ctx }

// RenderContext returns the scene's render context, or nil.
func (s *Scene) RenderContext() *RenderContext { return s.ctx }

// SetTimeStep sets the dt passed to OnUpdate hooks by Update.
func (s *Scene) SetTimeStep(dt float64) {
	if dt > 0 {
		s.dt = dt
	}
}

// TimeStep returns the dt passed to OnUpdate hooks.
func (s *Scene) TimeStep() float64 { return s.dt }

// SetDebugMode enables or disables debug mode. When enabled, use of
// destroyed entities panics, deep trees and wide child lists are logged,
// and render traversal stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) { s.debug = enabled }

// --- Arena ---

func (s *Scene) allocEntity(name string) *Entity {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, entitySlot{gen: 1})
	}
	slot := &s.slots[idx]
	e := newEntity(s, makeEntityID(idx, slot.gen), name)
	slot.entity = e
	return e
}

func (s *Scene) freeEntity(e *Entity) {
	slot := &s.slots[e.id.Index()]
	slot.entity = nil
	slot.gen++
	s.free = append(s.free, e.id.Index())
}

// Lookup resolves id. It returns nil for NoEntity, destroyed entities and
// handles from other scenes' arenas that do not match a live slot.
func (s *Scene) Lookup(id EntityID) *Entity {
	if id == NoEntity {
		return nil
	}
	idx := int(id.Index())
	if idx >= len(s.slots) {
		return nil
	}
	slot := &s.slots[idx]
	if slot.gen != id.Generation() {
		return nil
	}
	return slot.entity
}

// --- Factory ---

// CreateEntity creates an active entity under parent, or under the root
// when parent is nil. A destroyed or foreign parent is logged and the
// entity is anchored under the root instead.
func (s *Scene) CreateEntity(name string, parent *Entity) *Entity {
	if s.closed {
		panic("spaghetti: CreateEntity on closed scene")
	}
	if parent == nil {
		parent = s.root
	} else if parent.destroyed || parent.scene != s {
		logger().Warn("create entity: invalid parent, using scene root", "entity", name, "parent", parent.name)
		parent = s.root
	}
	e := s.allocEntity(name)
	e.parent = parent.id
	parent.children = append(parent.children, e.id)
	s.registry = append(s.registry, e.id)
	if s.debug {
		debugCheckTreeDepth(e)
		debugCheckChildCount(parent)
	}
	s.emit(SceneEvent{Kind: EventEntityCreated, Entity: e.id, Name: name, Parent: parent.id})
	return e
}

// DestroyEntity destroys e and its subtree, children first. Every component
// receives OnDestroy, e is detached from its parent and removed from the
// registry. Returns false for nil, destroyed, foreign or root entities.
func (s *Scene) DestroyEntity(e *Entity) bool {
	if e == nil || e.destroyed || e.scene != s {
		return false
	}
	if e == s.root {
		logger().Warn("destroy entity: scene root cannot be destroyed", "scene", s.name)
		return false
	}
	parent := e.Parent()
	s.destroyRecursive(e)
	if parent != nil {
		parent.removeChild(e.id)
	}
	return true
}

func (s *Scene) destroyRecursive(e *Entity) {
	children := e.children
	e.children = nil
	for _, id := range children {
		if c := s.Lookup(id); c != nil {
			s.destroyRecursive(c)
		}
	}
	for _, c := range e.components {
		c.OnDestroy()
		b := c.base()
		b.owner = nil
		b.self = nil
	}
	e.components = nil
	e.transform = nil
	e.reindex()

	s.unregister(e.id)
	if s.selected == e.id {
		s.selected = NoEntity
		s.emit(SceneEvent{Kind: EventSelectionChanged})
	}
	id, name := e.id, e.name
	s.freeEntity(e)
	e.destroyed = true
	e.parent = NoEntity
	s.emit(SceneEvent{Kind: EventEntityDestroyed, Entity: id, Name: name})
}

func (s *Scene) unregister(id EntityID) {
	for i, r := range s.registry {
		if r == id {
			copy(s.registry[i:], s.registry[i+1:])
			s.registry = s.registry[:len(s.registry)-1]
			return
		}
	}
}

// Close destroys every entity, the root included. The scene cannot be used
// afterwards.
func (s *Scene) Close() {
	if s.closed {
		return
	}
	s.playing, s.paused = false, false
	s.destroyRecursive(s.root)
	s.registry = nil
	s.closed = true
}

// --- Registry ---

// Entities returns every live entity except the root in creation order.
func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.registry))
	for _, id := range s.registry {
		if e := s.Lookup(id); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// EntityCount returns the number of live entities, excluding the root.
func (s *Scene) EntityCount() int { return len(s.registry) }

// FindEntity returns the first registered entity with the given name.
func (s *Scene) FindEntity(name string) *Entity {
	for _, id := range s.registry {
		if e := s.Lookup(id); e != nil && e.name == name {
			return e
		}
	}
	return nil
}

// --- Selection ---

// Select sets the editor selection. nil clears it.
func (s *Scene) Select(e *Entity) {
	id := NoEntity
	if e != nil && !e.destroyed && e.scene == s {
		id = e.id
	}
	if id == s.selected {
		return
	}
	s.selected = id
	s.emit(SceneEvent{Kind: EventSelectionChanged, Entity: id})
}

// Selected returns the selected entity, or nil.
func (s *Scene) Selected() *Entity { return s.Lookup(s.selected) }

// --- Lifecycle ---

// State returns the play state.
func (s *Scene) State() SceneState {
	switch {
	case s.playing && s.paused:
		return ScenePaused
	case s.playing:
		return ScenePlaying
	default:
		return SceneStopped
	}
}

// IsPlaying reports whether Start has been called without a matching Stop.
func (s *Scene) IsPlaying() bool { return s.playing }

// IsPaused reports whether the scene is playing and paused.
func (s *Scene) IsPaused() bool { return s.paused }

// Start moves a stopped scene to playing and runs OnStart on every
// component of every registered entity, in registry order. No-op while
// playing.
func (s *Scene) Start() {
	if s.playing {
		return
	}
	s.playing = true
	s.paused = false
	ids := append([]EntityID(nil), s.registry...)
	for _, id := range ids {
		e := s.Lookup(id)
		if e == nil {
			continue
		}
		for i := 0; i < len(e.components); i++ {
			e.components[i].OnStart()
		}
	}
	logger().Info("scene started", "scene", s.name, "entities", len(ids))
	s.emit(SceneEvent{Kind: EventScenePlay})
}

// Update runs one tree-order update from the root. No-op unless playing
// and not paused.
func (s *Scene) Update() {
	if !s.playing || s.paused {
		return
	}
	s.root.Update(s.dt)
}

// EditorUpdate runs OnEditorUpdate hooks and camera animation regardless of
// the play state.
func (s *Scene) EditorUpdate(dt float64) {
	s.camera.update(dt)
	s.root.editorUpdate(dt)
}

// Stop returns a playing scene to stopped. Components are not destroyed.
func (s *Scene) Stop() {
	if !s.playing {
		return
	}
	s.playing = false
	s.paused = false
	logger().Info("scene stopped", "scene", s.name)
	s.emit(SceneEvent{Kind: EventSceneStop})
}

// Pause sets the paused flag of a playing scene. No-op when stopped.
func (s *Scene) Pause(paused bool) {
	if !s.playing || s.paused == paused {
		return
	}
	s.paused = paused
	if paused {
		s.emit(SceneEvent{Kind: EventScenePause})
	} else {
		s.emit(SceneEvent{Kind: EventSceneResume})
	}
}

// --- Editor helpers ---

// FocusOn points the main camera at e's world position from slightly above
// and behind. Entities without a transform are ignored.
func (s *Scene) FocusOn(e *Entity) {
	if e == nil || e.transform == nil {
		return
	}
	s.camera.Focus(e.transform.WorldPosition())
}

// WorldPosition returns e's world position, or the origin when e has no
// transform.
func WorldPosition(e *Entity) mgl64.Vec3 {
	if e == nil || e.transform == nil {
		return mgl64.Vec3{}
	}
	return e.transform.WorldPosition()
}
