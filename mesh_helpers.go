package spaghetti

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Primitive defaults.
const (
	DefaultCubeSize       = 5.0
	DefaultSphereRadius   = 10.0
	DefaultSphereSegments = 32
	DefaultPlaneSize      = 10.0
)

// --- Cube ---

// cubeFace lists a face normal and two tangents with u x v == normal, so
// corners emitted in (-u,-v), (+u,-v), (+u,+v), (-u,+v) order wind
// counter-clockwise seen from outside.
type cubeFace struct {
	n, u, v mgl32.Vec3
}

var cubeFaces = [6]cubeFace{
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
}

var quadCorners = [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// appendQuad appends one face quad centred at n*offset with half extent h.
func appendQuad(verts []Vertex, inds []uint32, f cubeFace, offset, h float32) ([]Vertex, []uint32) {
	base := uint32(len(verts))
	center := f.n.Mul(offset)
	for _, c := range quadCorners {
		p := center.Add(f.u.Mul(c[0] * h)).Add(f.v.Mul(c[1] * h))
		verts = append(verts, Vertex{
			Position: p,
			Normal:   f.n,
			TexCoord: mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
		})
	}
	inds = append(inds, base, base+1, base+2, base, base+2, base+3)
	return verts, inds
}

// CubeGeometry returns a cube of edge length size centred on the origin:
// 24 vertices (4 per face, flat normals) and 36 indices.
func CubeGeometry(size float64) ([]Vertex, []uint32) {
	h := float32(size / 2)
	verts := make([]Vertex, 0, 24)
	inds := make([]uint32, 0, 36)
	for _, f := range cubeFaces {
		verts, inds = appendQuad(verts, inds, f, h, h)
	}
	return verts, inds
}

// --- Plane ---

// PlaneGeometry returns a size x size quad on the XZ plane facing +Y.
func PlaneGeometry(size float64) ([]Vertex, []uint32) {
	return appendQuad(nil, nil, cubeFaces[2], 0, float32(size/2))
}

// --- Sphere ---

// SphereGeometry returns a UV sphere with segments slices and segments
// stacks. Segments below 3 are raised to 3. Degenerate pole triangles are
// omitted.
func SphereGeometry(radius float64, segments int) ([]Vertex, []uint32) {
	if segments < 3 {
		segments = 3
	}
	stacks, slices := segments, segments
	verts := make([]Vertex, 0, (stacks+1)*(slices+1))
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		sinPhi, cosPhi := math.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			sinTheta, cosTheta := math.Sincos(theta)
			n := mgl32.Vec3{
				float32(sinPhi * cosTheta),
				float32(cosPhi),
				float32(sinPhi * sinTheta),
			}
			verts = append(verts, Vertex{
				Position: n.Mul(float32(radius)),
				Normal:   n,
				TexCoord: mgl32.Vec2{float32(j) / float32(slices), 1 - float32(i)/float32(stacks)},
			})
		}
	}

	inds := make([]uint32, 0, stacks*slices*6)
	row := uint32(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			if i != 0 {
				inds = append(inds, a, a+1, b)
			}
			if i != stacks-1 {
				inds = append(inds, a+1, b+1, b)
			}
		}
	}
	return verts, inds
}

// --- Entities ---

// PrimitiveGeometry returns the default geometry for kind.
func PrimitiveGeometry(kind PrimitiveKind) ([]Vertex, []uint32) {
	switch kind {
	case PrimitiveSphere:
		return SphereGeometry(DefaultSphereRadius, DefaultSphereSegments)
	case PrimitivePlane:
		return PlaneGeometry(DefaultPlaneSize)
	default:
		return CubeGeometry(DefaultCubeSize)
	}
}

// CreatePrimitive creates an entity with a transform, the primitive's mesh,
// a default material and a renderer. An empty name uses the kind's name.
func (s *Scene) CreatePrimitive(kind PrimitiveKind, name string, parent *Entity) *Entity {
	if name == "" {
		name = kind.String()
	}
	e := s.CreateEntity(name, parent)
	AddComponent(e, NewTransform())
	verts, inds := PrimitiveGeometry(kind)
	mesh, err := NewMesh(verts, inds)
	if err != nil {
		// generated geometry is always valid
		panic(err)
	}
	AddComponent(e, mesh)
	AddComponent(e, NewMaterial())
	AddComponent(e, NewRenderer())
	return e
}
