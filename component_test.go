package spaghetti

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagComponent has no ComponentName method.
type tagComponent struct {
	BaseComponent
	value int
}

// Ticker is implemented by components that count ticks.
type Ticker interface {
	Component
	Ticks() int
}

type tickComponent struct {
	BaseComponent
	n int
}

func (c *tickComponent) OnUpdate(float64) { c.n++ }
func (c *tickComponent) Ticks() int       { return c.n }

func TestAttachOrderAndOwner(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	var log []string
	r := &recorder{name: "r", log: &log}
	AddComponent(e, r)

	assert.Equal(t, e, r.Owner())
	assert.Equal(t, []string{"r.start"}, log)
	require.Len(t, e.Components(), 1)
	assert.Same(t, r, e.Components()[0].(*recorder))
}

func TestAttachOwnedComponent(t *testing.T) {
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	b := s.CreateEntity("b", nil)
	tag := AddComponent(a, &tagComponent{})

	err := b.Attach(tag)
	assert.True(t, errors.Is(err, ErrComponentOwned))
	assert.Equal(t, a, tag.Owner())
	assert.Empty(t, b.Components())
}

func TestAttachToDestroyedEntity(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	s.DestroyEntity(e)
	err := e.Attach(&tagComponent{})
	assert.True(t, errors.Is(err, ErrDestroyed))
}

func TestGetComponentFirstOfKind(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	first := AddComponent(e, &tagComponent{value: 1})
	AddComponent(e, NewTransform())
	second := AddComponent(e, &tagComponent{value: 2})

	got, ok := GetComponent[*tagComponent](e)
	require.True(t, ok)
	assert.Same(t, first, got)

	all := GetComponents[*tagComponent](e)
	require.Len(t, all, 2)
	assert.Same(t, second, all[1])

	_, ok = GetComponent[*MeshComponent](e)
	assert.False(t, ok)
	assert.False(t, HasComponent[*MeshComponent](e))
	assert.True(t, HasComponent[*TransformComponent](e))
}

func TestGetComponentByInterface(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	AddComponent(e, &tagComponent{})
	tick := AddComponent(e, &tickComponent{})

	got, ok := GetComponent[Ticker](e)
	require.True(t, ok)
	assert.Same(t, tick, got.(*tickComponent))

	e.Update(0.1)
	e.Update(0.1)
	assert.Equal(t, 2, got.Ticks())
}

func TestGetComponentNilEntity(t *testing.T) {
	_, ok := GetComponent[*TransformComponent](nil)
	assert.False(t, ok)
	assert.Nil(t, GetComponents[*TransformComponent](nil))
}

func TestRemoveComponent(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	var log []string
	r := AddComponent(e, &recorder{name: "r", log: &log})
	first := AddComponent(e, &tagComponent{value: 1})
	second := AddComponent(e, &tagComponent{value: 2})
	log = nil

	assert.True(t, e.RemoveComponent(r))
	assert.Equal(t, []string{"r.destroy"}, log)
	assert.Nil(t, r.Owner())

	// Removing twice is a no-op.
	assert.False(t, e.RemoveComponent(r))
	assert.Equal(t, []string{"r.destroy"}, log)

	// The kind index follows the shifted list.
	assert.True(t, e.RemoveComponent(first))
	got, ok := GetComponent[*tagComponent](e)
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.False(t, e.RemoveComponent(nil))
}

func TestRemovedComponentCanBeReattached(t *testing.T) {
	s := NewScene("test")
	a := s.CreateEntity("a", nil)
	b := s.CreateEntity("b", nil)
	tag := AddComponent(a, &tagComponent{})
	require.True(t, a.RemoveComponent(tag))
	require.NoError(t, b.Attach(tag))
	assert.Equal(t, b, tag.Owner())
}

func TestRemovePrimaryTransform(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	first := AddComponent(e, NewTransform())
	second := AddComponent(e, NewTransform())
	assert.Same(t, first, e.Transform())

	e.RemoveComponent(first)
	assert.Same(t, second, e.Transform())
	assert.True(t, second.IsDirty())

	e.RemoveComponent(second)
	assert.Nil(t, e.Transform())
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "Transform", ComponentName(NewTransform()))
	assert.Equal(t, "Mesh", ComponentName(NewEmptyMesh()))
	assert.Equal(t, "Renderer", ComponentName(NewRenderer()))
	assert.Equal(t, "tag", ComponentName(&tagComponent{}))
	assert.Equal(t, "Recorder", ComponentName(&recorder{}))
}

func TestAttachNilPanics(t *testing.T) {
	s := NewScene("test")
	e := s.CreateEntity("e", nil)
	assert.Panics(t, func() { _ = e.Attach(nil) })
}
