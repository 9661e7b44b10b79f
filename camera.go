package spaghetti

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Camera defaults.
const (
	DefaultFOV    = 60.0
	DefaultAspect = 16.0 / 9.0
	DefaultNear   = 0.1
	DefaultFar    = 128.0
)

// focusOffset is where FocusOn places the camera relative to the target.
var focusOffset = mgl64.Vec3{0, 2, 5}

// cameraMove holds active MoveTo tweens for the eye and target components.
type cameraMove struct {
	tweens [6]*gween.Tween
	done   [6]bool
}

// Camera is a perspective look-at camera.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	// FOV is the vertical field of view in degrees.
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	move *cameraMove
}

// NewCamera returns a camera at (0, 2, 10) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position: mgl64.Vec3{0, 2, 10},
		Up:       mgl64.Vec3{0, 1, 0},
		FOV:      DefaultFOV,
		Aspect:   DefaultAspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Frame returns the frame description for rendering through this camera.
func (c *Camera) Frame(settings RenderSettings) Frame {
	return Frame{
		View:       c.View(),
		Projection: c.Projection(),
		Eye:        c.Position,
		Settings:   settings,
	}
}

// SetViewportSize updates the aspect ratio from a pixel size.
func (c *Camera) SetViewportSize(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float64(width) / float64(height)
	}
}

// LookAt points the camera at target without moving it.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.Target = target
}

// Orbit rotates the eye around the target by yaw (about world Y) and pitch
// (about the camera's right axis), in radians. Pitch stops short of the poles.
func (c *Camera) Orbit(yaw, pitch float64) {
	offset := c.Position.Sub(c.Target)
	dist := offset.Len()
	if dist == 0 {
		return
	}
	theta := math.Atan2(offset[0], offset[2]) + yaw
	phi := math.Acos(offset[1]/dist) - pitch
	const limit = 1e-3
	phi = math.Max(limit, math.Min(math.Pi-limit, phi))
	sinPhi := math.Sin(phi)
	c.Position = c.Target.Add(mgl64.Vec3{
		dist * sinPhi * math.Sin(theta),
		dist * math.Cos(phi),
		dist * sinPhi * math.Cos(theta),
	})
}

// Zoom scales the eye's distance to the target. Factors below 1 move closer.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	offset := c.Position.Sub(c.Target).Mul(factor)
	if offset.Len() < c.Near {
		return
	}
	c.Position = c.Target.Add(offset)
}

// Focus snaps the camera to look at point from point + (0, 2, 5).
func (c *Camera) Focus(point mgl64.Vec3) {
	c.move = nil
	c.Position = point.Add(focusOffset)
	c.Target = point
}

// MoveTo animates the eye and target over duration seconds.
func (c *Camera) MoveTo(position, target mgl64.Vec3, duration float32, fn ease.TweenFunc) {
	m := &cameraMove{}
	for i := 0; i < 3; i++ {
		m.tweens[i] = gween.New(float32(c.Position[i]), float32(position[i]), duration, fn)
		m.tweens[i+3] = gween.New(float32(c.Target[i]), float32(target[i]), duration, fn)
	}
	c.move = m
}

// Moving reports whether a MoveTo animation is running.
func (c *Camera) Moving() bool { return c.move != nil }

// update advances a running MoveTo animation.
func (c *Camera) update(dt float64) {
	m := c.move
	if m == nil {
		return
	}
	all := true
	for i, tw := range m.tweens {
		if m.done[i] {
			continue
		}
		val, finished := tw.Update(float32(dt))
		if i < 3 {
			c.Position[i] = float64(val)
		} else {
			c.Target[i-3] = float64(val)
		}
		m.done[i] = finished
		if !finished {
			all = false
		}
	}
	if all {
		c.move = nil
	}
}
