package spaghetti

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tweenEntity(t *testing.T, tw *TweenComponent) (*Scene, *TransformComponent) {
	t.Helper()
	s := NewScene("tween")
	e := s.CreateEntity("e", nil)
	tr := AddComponent(e, NewTransform())
	AddComponent(e, tw)
	s.SetTimeStep(0.5)
	return s, tr
}

func TestTweenPosition(t *testing.T) {
	completed := 0
	tw := NewTween(TweenPosition, mgl64.Vec3{4, 0, -2}, 1, nil)
	tw.OnComplete = func() { completed++ }
	s, tr := tweenEntity(t, tw)

	// Stopped scenes do not advance tweens.
	s.Update()
	assert.Equal(t, mgl64.Vec3{}, tr.LocalPosition())

	s.Start()
	s.Update()
	assertVec3(t, "half", tr.LocalPosition(), mgl64.Vec3{2, 0, -1})
	assert.False(t, tw.Done())

	s.Update()
	assertVec3(t, "end", tr.LocalPosition(), mgl64.Vec3{4, 0, -2})
	assert.True(t, tw.Done())
	assert.Equal(t, 1, completed)

	s.Update()
	assert.Equal(t, 1, completed)
}

func TestTweenScaleAndRotation(t *testing.T) {
	scale := NewTween(TweenScale, mgl64.Vec3{3, 3, 3}, 1, nil)
	s, tr := tweenEntity(t, scale)
	rot := AddComponent(tr.Owner(), NewTween(TweenRotation, mgl64.Vec3{0, 90, 0}, 1, nil))
	require.NotNil(t, rot)

	s.Start()
	s.Update()
	s.Update()
	assertVec3(t, "scale", tr.LocalScale(), mgl64.Vec3{3, 3, 3})
	got := tr.LocalEulerAngles()
	assert.InDelta(t, 90, got[1], 1e-3)
}

func TestTweenLoop(t *testing.T) {
	tw := NewTween(TweenPosition, mgl64.Vec3{2, 0, 0}, 1, nil)
	tw.Loop = true
	s, tr := tweenEntity(t, tw)

	s.Start()
	s.Update()
	s.Update()
	assertVec3(t, "out", tr.LocalPosition(), mgl64.Vec3{2, 0, 0})
	s.Update()
	s.Update()
	assertVec3(t, "back", tr.LocalPosition(), mgl64.Vec3{0, 0, 0})
	assert.False(t, tw.Done())
}

func TestTweenRestartsOnStart(t *testing.T) {
	tw := NewTween(TweenPosition, mgl64.Vec3{1, 0, 0}, 1, nil)
	s, tr := tweenEntity(t, tw)
	s.Start()
	s.Update()
	s.Update()
	require.True(t, tw.Done())

	s.Stop()
	tr.SetLocalPosition(mgl64.Vec3{-1, 0, 0})
	s.Start()
	assert.False(t, tw.Done())
	s.Update()
	assertVec3(t, "restarted", tr.LocalPosition(), mgl64.Vec3{0, 0, 0})
}

func TestTweenWithoutTransform(t *testing.T) {
	s := NewScene("tween")
	e := s.CreateEntity("e", nil)
	tw := AddComponent(e, NewTween(TweenPosition, mgl64.Vec3{1, 1, 1}, 1, nil))
	s.Start()
	s.Update()
	assert.False(t, tw.Done())
}
