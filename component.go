package spaghetti

import (
	"reflect"
	"strings"
	"sync"
)

// Component is a behavior or data unit attached to exactly one Entity.
//
// Implementations embed BaseComponent, which supplies no-op hooks and the
// owner bookkeeping. Only pointer types satisfy the interface.
type Component interface {
	// OnStart runs when the component is attached and again when the scene
	// starts playing.
	OnStart()
	OnEnable()
	OnDisable()
	// OnUpdate runs once per Scene.Update while the component is active.
	OnUpdate(dt float64)
	// OnEditorUpdate runs once per Scene.EditorUpdate regardless of play state.
	OnEditorUpdate(dt float64)
	// OnDestroy runs when the component is removed or its owner destroyed.
	OnDestroy()

	// Owner, Enabled, IsActive and SetActive are provided by BaseComponent.
	Owner() *Entity
	Enabled() bool
	IsActive() bool
	SetActive(active bool)

	base() *BaseComponent
}

// BaseComponent carries the owner link and active flag shared by every
// component. The zero value is an enabled, unattached component.
type BaseComponent struct {
	owner    *Entity
	self     Component
	disabled bool
}

func (b *BaseComponent) base() *BaseComponent { return b }

// Owner returns the entity the component is attached to, or nil.
func (b *BaseComponent) Owner() *Entity { return b.owner }

// Enabled reports the component's own flag, ignoring the owner.
func (b *BaseComponent) Enabled() bool { return !b.disabled }

// IsActive reports whether the component is enabled and attached to an
// active entity.
func (b *BaseComponent) IsActive() bool {
	return !b.disabled && b.owner != nil && b.owner.active
}

// SetActive enables or disables the component. OnEnable / OnDisable fire
// only when the flag changes and the component is attached.
func (b *BaseComponent) SetActive(active bool) {
	if b.disabled == !active {
		return
	}
	b.disabled = !active
	if b.self == nil {
		return
	}
	if active {
		b.self.OnEnable()
	} else {
		b.self.OnDisable()
	}
}

func (b *BaseComponent) OnStart() {}
func (b *BaseComponent) OnEnable() {}
func (b *BaseComponent) OnDisable() {}
func (b *BaseComponent) OnUpdate(float64) {}
func (b *BaseComponent) OnEditorUpdate(float64) {}
func (b *BaseComponent) OnDestroy() {}

// Named is implemented by components that report a display name.
type Named interface {
	ComponentName() string
}

// ComponentName returns the display name of c: its ComponentName method if
// it has one, otherwise the type name with any "Component" suffix trimmed.
func ComponentName(c Component) string {
	if n, ok := c.(Named); ok {
		return n.ComponentName()
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := strings.TrimSuffix(t.Name(), "Component")
	if name == "" {
		return t.String()
	}
	return name
}

// --- Kind registry ---

// componentKind is a small integer assigned to each concrete component type
// the first time it is seen. Entities index their components by kind.
type componentKind uint32

var (
	kindMu   sync.Mutex
	kindByTy = map[reflect.Type]componentKind{}
)

func kindOf(t reflect.Type) componentKind {
	kindMu.Lock()
	defer kindMu.Unlock()
	k, ok := kindByTy[t]
	if !ok {
		k = componentKind(len(kindByTy) + 1)
		kindByTy[t] = k
	}
	return k
}

// --- Generic accessors ---

// AddComponent attaches c to e and returns it. The owner is set, OnStart
// runs, then c is appended to the component list. Attaching a component that
// already has an owner, or attaching to a destroyed entity, is logged and
// leaves c unattached.
func AddComponent[T Component](e *Entity, c T) T {
	if err := e.Attach(c); err != nil {
		logger().Warn("add component", "entity", e.name, "component", ComponentName(c), "err", err)
	}
	return c
}

// GetComponent returns the first component of e assignable to T.
//
// Concrete component types are resolved through the entity's kind index.
// Interface types scan the component list in order.
func GetComponent[T Component](e *Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		i, ok := e.kinds.Get(kindOf(t))
		if !ok {
			return zero, false
		}
		return e.components[i].(T), true
	}
	for _, c := range e.components {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	return zero, false
}

// GetComponents returns every component of e assignable to T, in order.
func GetComponents[T Component](e *Entity) []T {
	if e == nil {
		return nil
	}
	var out []T
	for _, c := range e.components {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// HasComponent reports whether e holds a component assignable to T.
func HasComponent[T Component](e *Entity) bool {
	_, ok := GetComponent[T](e)
	return ok
}
