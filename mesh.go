package spaghetti

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is one mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// defaultNormalLength is the debug normal length in model units.
const defaultNormalLength = 0.1

// MeshComponent holds triangle geometry and the backend buffer uploaded
// from it. The buffer belongs to the component: it is released when the data
// is replaced and when the component is destroyed.
type MeshComponent struct {
	BaseComponent

	vertices []Vertex
	indices  []uint32

	buffer  BufferID
	backend Backend
	stale   bool

	ShowNormals  bool
	NormalLength float64
}

// NewMesh validates and copies the geometry into a new mesh component.
func NewMesh(vertices []Vertex, indices []uint32) (*MeshComponent, error) {
	m := &MeshComponent{NormalLength: defaultNormalLength}
	if err := m.SetMeshData(vertices, indices); err != nil {
		return nil, err
	}
	return m, nil
}

// NewEmptyMesh returns a mesh with no geometry. It draws nothing.
func NewEmptyMesh() *MeshComponent {
	return &MeshComponent{NormalLength: defaultNormalLength}
}

// validateIndices checks that indices form whole triangles over vertexCount
// vertices.
func validateIndices(indices []uint32, vertexCount int) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrTriangleList, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: index %d at %d with %d vertices", ErrIndexOutOfRange, idx, i, vertexCount)
		}
	}
	return nil
}

// SetMeshData replaces the geometry. The old buffer is released and the new
// data is uploaded on the next start or draw. Invalid data leaves the mesh
// unchanged.
func (m *MeshComponent) SetMeshData(vertices []Vertex, indices []uint32) error {
	if err := validateIndices(indices, len(vertices)); err != nil {
		return err
	}
	m.release()
	m.vertices = append(m.vertices[:0], vertices...)
	m.indices = append(m.indices[:0], indices...)
	m.stale = true
	return nil
}

// Vertices returns the vertex data. The returned slice MUST NOT be mutated.
func (m *MeshComponent) Vertices() []Vertex { return m.vertices }

// Indices returns the index data. The returned slice MUST NOT be mutated.
func (m *MeshComponent) Indices() []uint32 { return m.indices }

// TriangleCount returns len(indices) / 3.
func (m *MeshComponent) TriangleCount() int { return len(m.indices) / 3 }

// IsEmpty reports whether the mesh has no vertices or no indices.
func (m *MeshComponent) IsEmpty() bool {
	return len(m.vertices) == 0 || len(m.indices) == 0
}

// Buffer returns the uploaded buffer handle, or zero.
func (m *MeshComponent) Buffer() BufferID { return m.buffer }

// OnStart uploads the geometry through the owner scene's backend.
func (m *MeshComponent) OnStart() {
	if b := m.contextBackend(); b != nil && (m.stale || m.buffer == 0) {
		m.setup(b)
	}
}

// OnDestroy releases the buffer.
func (m *MeshComponent) OnDestroy() {
	m.release()
}

func (m *MeshComponent) contextBackend() Backend {
	if m.owner == nil || m.owner.scene.ctx == nil {
		return nil
	}
	return m.owner.scene.ctx.Backend
}

func (m *MeshComponent) setup(b Backend) {
	m.release()
	m.stale = false
	if m.IsEmpty() {
		return
	}
	m.buffer = b.CreateBuffer()
	m.backend = b
	b.UploadVertices(m.buffer, m.vertices)
	b.UploadIndices(m.buffer, m.indices)
}

func (m *MeshComponent) release() {
	if m.buffer != 0 && m.backend != nil {
		m.backend.DestroyBuffer(m.buffer)
	}
	m.buffer = 0
	m.backend = nil
}

// Draw binds the buffer and issues one indexed draw with the given model
// matrix. An empty mesh issues nothing and returns false.
func (m *MeshComponent) Draw(b Backend, model mgl64.Mat4) bool {
	if m.IsEmpty() {
		return false
	}
	if m.stale || m.buffer == 0 || m.backend != b {
		m.setup(b)
	}
	b.SetModelMatrix(model)
	b.BindBuffer(m.buffer)
	b.DrawIndexed(len(m.indices))
	if m.ShowNormals {
		b.DrawLines(m.normalSegments(), Color{0, 1, 0})
	}
	return true
}

func (m *MeshComponent) normalSegments() []LineSegment {
	segs := make([]LineSegment, len(m.vertices))
	l := m.NormalLength
	for i, v := range m.vertices {
		p := vec3To64(v.Position)
		n := vec3To64(v.Normal)
		segs[i] = LineSegment{From: p, To: p.Add(n.Mul(l))}
	}
	return segs
}

// Bounds returns the model-space axis-aligned bounding box.
func (m *MeshComponent) Bounds() (minV, maxV mgl64.Vec3) {
	if len(m.vertices) == 0 {
		return
	}
	minV = vec3To64(m.vertices[0].Position)
	maxV = minV
	for i := 1; i < len(m.vertices); i++ {
		p := vec3To64(m.vertices[i].Position)
		for k := 0; k < 3; k++ {
			if p[k] < minV[k] {
				minV[k] = p[k]
			}
			if p[k] > maxV[k] {
				maxV[k] = p[k]
			}
		}
	}
	return minV, maxV
}

func vec3To64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
