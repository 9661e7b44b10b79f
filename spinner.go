package spaghetti

import "github.com/go-gl/mathgl/mgl64"

// SpinnerComponent rotates its owner about Axis at Speed radians per second
// while the scene plays. With Preview set it also spins in the editor while
// the scene is stopped.
type SpinnerComponent struct {
	BaseComponent
	Axis    mgl64.Vec3
	Speed   float64
	Preview bool
}

// NewSpinner returns a spinner about axis.
func NewSpinner(axis mgl64.Vec3, speed float64) *SpinnerComponent {
	return &SpinnerComponent{Axis: axis, Speed: speed}
}

func (s *SpinnerComponent) OnUpdate(dt float64) {
	s.spin(dt)
}

func (s *SpinnerComponent) OnEditorUpdate(dt float64) {
	if s.Preview && s.owner != nil && !s.owner.scene.playing {
		s.spin(dt)
	}
}

func (s *SpinnerComponent) spin(dt float64) {
	if s.owner == nil || s.owner.transform == nil {
		return
	}
	s.owner.transform.Rotate(s.Speed*dt, s.Axis)
}
