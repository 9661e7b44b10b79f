package spaghetti

import (
	"fmt"
	"reflect"

	"github.com/kamstrup/intmap"
)

// EntityID is a stable handle to an entity slot in a Scene. The low 32 bits
// are the slot index, the high 32 bits the slot generation. Handles to
// destroyed entities never resolve again.
type EntityID uint64

// NoEntity is the zero handle. It never resolves.
const NoEntity EntityID = 0

func makeEntityID(index, gen uint32) EntityID {
	return EntityID(uint64(gen)<<32 | uint64(index))
}

// Index returns the arena slot index.
func (id EntityID) Index() uint32 { return uint32(id) }

// Generation returns the slot generation.
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// Entity is a node in the scene graph. It owns an ordered list of components
// and an ordered list of children. Parent and child links are EntityID handles
// resolved through the owning Scene.
//
// Entities are created by Scene.CreateEntity and destroyed by
// Scene.DestroyEntity.
type Entity struct {
	id     EntityID
	name   string
	active bool
	scene  *Scene

	parent   EntityID
	children []EntityID

	components []Component
	kinds      *intmap.Map[componentKind, int] // first position per concrete kind
	transform  *TransformComponent

	destroyed bool
}

func newEntity(s *Scene, id EntityID, name string) *Entity {
	return &Entity{
		id:     id,
		name:   name,
		active: true,
		scene:  s,
		kinds:  intmap.New[componentKind, int](4),
	}
}

// ID returns the entity's handle.
func (e *Entity) ID() EntityID { return e.id }

// Name returns the entity's name.
func (e *Entity) Name() string { return e.name }

// SetName renames the entity.
func (e *Entity) SetName(name string) { e.name = name }

// Scene returns the scene that owns the entity.
func (e *Entity) Scene() *Scene { return e.scene }

// IsActive reports the entity's own active flag.
func (e *Entity) IsActive() bool { return e.active }

// Destroyed reports whether the entity has been destroyed.
func (e *Entity) Destroyed() bool { return e.destroyed }

// SetActive sets the active flag. When the flag changes, OnEnable or
// OnDisable fires on every owned component.
func (e *Entity) SetActive(active bool) {
	if e.scene.debug {
		debugCheckDestroyed(e, "SetActive")
	}
	if e.active == active {
		return
	}
	e.active = active
	for _, c := range e.components {
		if active {
			c.OnEnable()
		} else {
			c.OnDisable()
		}
	}
}

// --- Hierarchy ---

// Parent returns the parent entity, or nil for the scene root and destroyed
// entities.
func (e *Entity) Parent() *Entity {
	return e.scene.Lookup(e.parent)
}

// ParentID returns the parent handle.
func (e *Entity) ParentID() EntityID { return e.parent }

// ChildIDs returns the child handles. The returned slice MUST NOT be mutated.
func (e *Entity) ChildIDs() []EntityID { return e.children }

// Children resolves and returns the child entities in order.
func (e *Entity) Children() []*Entity {
	out := make([]*Entity, 0, len(e.children))
	for _, id := range e.children {
		if c := e.scene.Lookup(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NumChildren returns the number of children.
func (e *Entity) NumChildren() int { return len(e.children) }

// ChildAt returns the child at index i.
func (e *Entity) ChildAt(i int) *Entity {
	return e.scene.Lookup(e.children[i])
}

// FindChild returns the first descendant with the given name, depth first.
func (e *Entity) FindChild(name string) *Entity {
	for _, id := range e.children {
		c := e.scene.Lookup(id)
		if c == nil {
			continue
		}
		if c.name == name {
			return c
		}
		if found := c.FindChild(name); found != nil {
			return found
		}
	}
	return nil
}

// IsAncestorOf reports whether e is other or one of other's ancestors.
func (e *Entity) IsAncestorOf(other *Entity) bool {
	return isAncestor(e, other)
}

// SetParent moves e under p, appending it to p's child list. A nil p
// re-anchors e under the scene root. Setting the current parent again is a
// no-op. Returns ErrCycle and leaves the tree unchanged when p is e or one
// of its descendants.
func (e *Entity) SetParent(p *Entity) error {
	s := e.scene
	if s.debug {
		debugCheckDestroyed(e, "SetParent")
	}
	if e.destroyed {
		return ErrDestroyed
	}
	if e == s.root {
		return ErrRootEntity
	}
	if p == nil {
		p = s.root
	}
	if p.destroyed {
		return ErrDestroyed
	}
	if p.scene != s {
		return ErrForeignEntity
	}
	if p.id == e.parent {
		return nil
	}
	if isAncestor(e, p) {
		err := fmt.Errorf("%w: %q under %q", ErrCycle, e.name, p.name)
		logger().Warn("set parent rejected", "entity", e.name, "err", err)
		return err
	}
	if old := s.Lookup(e.parent); old != nil {
		old.removeChild(e.id)
	}
	e.parent = p.id
	p.children = append(p.children, e.id)
	markSubtreeDirty(e)
	if s.debug {
		debugCheckTreeDepth(e)
		debugCheckChildCount(p)
	}
	s.emit(SceneEvent{Kind: EventEntityReparented, Entity: e.id, Parent: p.id})
	return nil
}

// removeChild removes id from e.children, preserving order.
func (e *Entity) removeChild(id EntityID) {
	for i, c := range e.children {
		if c == id {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = NoEntity
			e.children = e.children[:len(e.children)-1]
			return
		}
	}
}

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Entity) bool {
	for p := node; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}

// --- Components ---

// Components returns the owned components in attach order. The returned
// slice MUST NOT be mutated.
func (e *Entity) Components() []Component { return e.components }

// Transform returns the entity's first TransformComponent, or nil.
func (e *Entity) Transform() *TransformComponent { return e.transform }

// Attach sets e as the owner of c, runs c.OnStart and appends c to the
// component list.
func (e *Entity) Attach(c Component) error {
	if c == nil {
		panic("spaghetti: cannot attach nil component")
	}
	if e.scene.debug {
		debugCheckDestroyed(e, "Attach")
	}
	if e.destroyed {
		return ErrDestroyed
	}
	b := c.base()
	if b.owner != nil {
		return ErrComponentOwned
	}
	b.owner = e
	b.self = c
	c.OnStart()
	e.components = append(e.components, c)
	k := kindOf(reflect.TypeOf(c))
	if _, ok := e.kinds.Get(k); !ok {
		e.kinds.Put(k, len(e.components)-1)
	}
	if t, ok := c.(*TransformComponent); ok && e.transform == nil {
		e.transform = t
		markSubtreeDirty(e)
	}
	e.scene.emit(SceneEvent{Kind: EventComponentAdded, Entity: e.id, Component: ComponentName(c)})
	return nil
}

// RemoveComponent runs c.OnDestroy and detaches it. Returns false when c is
// not attached to e.
func (e *Entity) RemoveComponent(c Component) bool {
	if c == nil {
		return false
	}
	for i, x := range e.components {
		if x != c {
			continue
		}
		c.OnDestroy()
		copy(e.components[i:], e.components[i+1:])
		e.components[len(e.components)-1] = nil
		e.components = e.components[:len(e.components)-1]
		b := c.base()
		b.owner = nil
		b.self = nil
		e.reindex()
		if c == Component(e.transform) {
			e.transform, _ = GetComponent[*TransformComponent](e)
			markSubtreeDirty(e)
		}
		e.scene.emit(SceneEvent{Kind: EventComponentRemoved, Entity: e.id, Component: ComponentName(c)})
		return true
	}
	return false
}

// reindex rebuilds the kind index after the component list shifted.
func (e *Entity) reindex() {
	e.kinds = intmap.New[componentKind, int](len(e.components))
	for i, c := range e.components {
		k := kindOf(reflect.TypeOf(c))
		if _, ok := e.kinds.Get(k); !ok {
			e.kinds.Put(k, i)
		}
	}
}

// --- Traversal ---

// Update runs OnUpdate on every active component, then recurses into every
// child. Inactive entities are skipped with their subtree; each child checks
// its own flag on entry.
func (e *Entity) Update(dt float64) {
	if !e.active || e.destroyed {
		return
	}
	for i := 0; i < len(e.components); i++ {
		c := e.components[i]
		if c.base().IsActive() {
			c.OnUpdate(dt)
		}
	}
	for _, id := range e.childSnapshot() {
		if child := e.scene.Lookup(id); child != nil {
			child.Update(dt)
		}
	}
}

// editorUpdate mirrors Update for OnEditorUpdate hooks.
func (e *Entity) editorUpdate(dt float64) {
	if !e.active || e.destroyed {
		return
	}
	for i := 0; i < len(e.components); i++ {
		c := e.components[i]
		if c.base().IsActive() {
			c.OnEditorUpdate(dt)
		}
	}
	for _, id := range e.childSnapshot() {
		if child := e.scene.Lookup(id); child != nil {
			child.editorUpdate(dt)
		}
	}
}

// childSnapshot copies the child list so hooks may destroy or reparent
// siblings while the traversal is running.
func (e *Entity) childSnapshot() []EntityID {
	return append([]EntityID(nil), e.children...)
}

// markSubtreeDirty marks e's transform and every transform composed below
// it dirty without short-circuiting. Used for structural changes, where a
// clean descendant may sit below a transform that just changed parent.
func markSubtreeDirty(e *Entity) {
	if e.transform != nil {
		e.transform.dirty = true
	}
	for _, id := range e.children {
		if c := e.scene.Lookup(id); c != nil && c.transform != nil {
			markSubtreeDirty(c)
		}
	}
}
