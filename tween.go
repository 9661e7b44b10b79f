package spaghetti

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenProperty selects the transform property a TweenComponent animates.
type TweenProperty uint8

const (
	TweenPosition TweenProperty = iota // local position
	TweenScale                         // local scale
	TweenRotation                      // local Euler angles in degrees
)

// TweenComponent animates one transform property of its owner from the
// value it has when the component starts to a target value. It advances
// only while the scene is playing. Starting the scene again restarts it from
// the current value.
type TweenComponent struct {
	BaseComponent

	Property TweenProperty
	To       mgl64.Vec3
	Duration float32
	Ease     ease.TweenFunc
	// Loop plays the tween back and forth until the component is removed.
	Loop bool
	// OnComplete, if set, runs once when a non-looping tween finishes.
	OnComplete func()

	from   mgl64.Vec3
	tweens [3]*gween.Tween
	done   bool
}

// NewTween returns a tween of prop to the target value over duration
// seconds. A nil fn uses linear easing.
func NewTween(prop TweenProperty, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenComponent {
	if fn == nil {
		fn = ease.Linear
	}
	return &TweenComponent{Property: prop, To: to, Duration: duration, Ease: fn}
}

// Done reports whether a non-looping tween has finished.
func (tw *TweenComponent) Done() bool { return tw.done }

// OnStart captures the start value and rebuilds the tweens.
func (tw *TweenComponent) OnStart() {
	t := tw.transform()
	if t == nil {
		return
	}
	tw.from = tw.read(t)
	tw.build(tw.from, tw.To)
	tw.done = false
}

func (tw *TweenComponent) build(from, to mgl64.Vec3) {
	fn := tw.Ease
	if fn == nil {
		fn = ease.Linear
	}
	for i := range tw.tweens {
		tw.tweens[i] = gween.New(float32(from[i]), float32(to[i]), tw.Duration, fn)
	}
}

// OnUpdate advances the tweens by dt and writes the value to the transform.
func (tw *TweenComponent) OnUpdate(dt float64) {
	t := tw.transform()
	if tw.done || t == nil || tw.tweens[0] == nil {
		return
	}
	var v mgl64.Vec3
	all := true
	for i, g := range tw.tweens {
		val, finished := g.Update(float32(dt))
		v[i] = float64(val)
		if !finished {
			all = false
		}
	}
	tw.write(t, v)
	if !all {
		return
	}
	if tw.Loop {
		tw.from, tw.To = tw.To, tw.from
		tw.build(tw.from, tw.To)
		return
	}
	tw.done = true
	if tw.OnComplete != nil {
		tw.OnComplete()
	}
}

func (tw *TweenComponent) transform() *TransformComponent {
	if tw.owner == nil {
		return nil
	}
	return tw.owner.transform
}

func (tw *TweenComponent) read(t *TransformComponent) mgl64.Vec3 {
	switch tw.Property {
	case TweenScale:
		return t.LocalScale()
	case TweenRotation:
		return t.LocalEulerAngles()
	default:
		return t.LocalPosition()
	}
}

func (tw *TweenComponent) write(t *TransformComponent, v mgl64.Vec3) {
	switch tw.Property {
	case TweenScale:
		t.SetLocalScale(v)
	case TweenRotation:
		t.SetLocalEulerAngles(v)
	default:
		t.SetLocalPosition(v)
	}
}
