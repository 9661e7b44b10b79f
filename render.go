package spaghetti

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// RenderStats summarizes one Render traversal.
type RenderStats struct {
	Visited  int // active entities visited
	Skipped  int // inactive subtrees skipped
	Draws    int // indexed draw calls issued
	Duration time.Duration
}

var axisSegments = [3][]LineSegment{
	{{To: mgl64.Vec3{1, 0, 0}}},
	{{To: mgl64.Vec3{0, 1, 0}}},
	{{To: mgl64.Vec3{0, 0, 1}}},
}

var axisColors = [3]Color{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Render draws the scene through the render context's backend from the
// main camera. It walks the tree depth first in pre-order, skips inactive
// subtrees, binds each entity's material and then draws its mesh with the
// entity's world matrix. Without a render context Render does nothing.
func (s *Scene) Render() RenderStats {
	var stats RenderStats
	if s.ctx == nil || s.ctx.Backend == nil || s.closed {
		return stats
	}
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	b := s.ctx.Backend
	b.BeginFrame(s.camera.Frame(s.ctx.Settings))
	s.renderEntity(s.root, mgl64.Ident4(), &stats)
	b.EndFrame()

	if s.debug {
		stats.Duration = time.Since(t0)
		s.debugLog(stats)
	}
	s.lastStats = stats
	return stats
}

// LastRenderStats returns the stats of the most recent Render.
func (s *Scene) LastRenderStats() RenderStats { return s.lastStats }

// renderEntity visits e. An entity with a transform draws with its own
// world matrix; one without draws with the matrix its parent drew with.
func (s *Scene) renderEntity(e *Entity, inherited mgl64.Mat4, stats *RenderStats) {
	if !e.active {
		stats.Skipped++
		return
	}
	stats.Visited++

	world := inherited
	if e.transform != nil {
		world = e.transform.GetWorldMatrix()
	}
	s.drawEntity(e, world, stats)

	for i := 0; i < len(e.children); i++ {
		if c := s.Lookup(e.children[i]); c != nil {
			s.renderEntity(c, world, stats)
		}
	}
}

func (s *Scene) drawEntity(e *Entity, world mgl64.Mat4, stats *RenderStats) {
	ctx := s.ctx
	b := ctx.Backend

	if ctx.Settings.ShowAxes && e.transform != nil {
		b.SetModelMatrix(world)
		for i := range axisSegments {
			b.DrawLines(axisSegments[i], axisColors[i])
		}
	}

	var mesh *MeshComponent
	var mat *MaterialComponent
	if r, ok := GetComponent[*RendererComponent](e); ok {
		if !r.IsVisible() || !r.IsActive() {
			return
		}
		mesh, mat = r.resolve()
	} else {
		mesh, _ = GetComponent[*MeshComponent](e)
		mat, _ = GetComponent[*MaterialComponent](e)
	}
	if mesh == nil || !mesh.IsActive() || mesh.IsEmpty() {
		return
	}

	// Material state applies to the next draw, so it is bound first.
	if mat != nil && mat.IsActive() {
		mat.Bind(ctx)
	} else {
		b.SetMaterial(defaultMaterialState(ctx))
	}
	if mesh.Draw(b, world) {
		stats.Draws++
	}
}

func defaultMaterialState(ctx *RenderContext) MaterialState {
	return NewMaterial().State(ctx)
}
