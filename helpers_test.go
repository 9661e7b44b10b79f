package spaghetti

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec3(t *testing.T, name string, got, want mgl64.Vec3) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
			return
		}
	}
}

func assertMat4(t *testing.T, name string, got, want mgl64.Mat4) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
			return
		}
	}
}

// recordingBackend logs every Backend call as a short string and tracks
// live buffer and texture handles.
type recordingBackend struct {
	calls []string

	nextBuffer  BufferID
	nextTexture TextureID
	buffers     map[BufferID]bool
	textures    map[TextureID]bool
	destroyed   map[BufferID]int

	models    []mgl64.Mat4
	materials []MaterialState
	draws     []int
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		buffers:   map[BufferID]bool{},
		textures:  map[TextureID]bool{},
		destroyed: map[BufferID]int{},
	}
}

func (r *recordingBackend) CreateBuffer() BufferID {
	r.nextBuffer++
	r.buffers[r.nextBuffer] = true
	r.calls = append(r.calls, "create-buffer")
	return r.nextBuffer
}

func (r *recordingBackend) DestroyBuffer(id BufferID) {
	delete(r.buffers, id)
	r.destroyed[id]++
	r.calls = append(r.calls, "destroy-buffer")
}

func (r *recordingBackend) UploadVertices(id BufferID, v []Vertex) {
	r.calls = append(r.calls, fmt.Sprintf("vertices %d", len(v)))
}

func (r *recordingBackend) UploadIndices(id BufferID, i []uint32) {
	r.calls = append(r.calls, fmt.Sprintf("indices %d", len(i)))
}

func (r *recordingBackend) BindBuffer(id BufferID) {
	r.calls = append(r.calls, fmt.Sprintf("bind %d", id))
}

func (r *recordingBackend) CreateTexture(px Pixels) TextureID {
	r.nextTexture++
	r.textures[r.nextTexture] = true
	return r.nextTexture
}

func (r *recordingBackend) DestroyTexture(id TextureID) {
	delete(r.textures, id)
}

func (r *recordingBackend) SetModelMatrix(m mgl64.Mat4) {
	r.models = append(r.models, m)
	r.calls = append(r.calls, "model")
}

func (r *recordingBackend) SetMaterial(m MaterialState) {
	r.materials = append(r.materials, m)
	r.calls = append(r.calls, "material")
}

func (r *recordingBackend) DrawIndexed(count int) {
	r.draws = append(r.draws, count)
	r.calls = append(r.calls, fmt.Sprintf("draw %d", count))
}

func (r *recordingBackend) DrawLines(segments []LineSegment, c Color) {
	r.calls = append(r.calls, fmt.Sprintf("lines %d", len(segments)))
}

func (r *recordingBackend) BeginFrame(Frame) { r.calls = append(r.calls, "begin") }
func (r *recordingBackend) EndFrame()        { r.calls = append(r.calls, "end") }

func (r *recordingBackend) reset() {
	r.calls = nil
	r.models = nil
	r.materials = nil
	r.draws = nil
}

// recorder is a component that logs its hooks into a shared slice.
type recorder struct {
	BaseComponent
	name string
	log  *[]string
}

func (c *recorder) OnStart()               { *c.log = append(*c.log, c.name+".start") }
func (c *recorder) OnEnable()              { *c.log = append(*c.log, c.name+".enable") }
func (c *recorder) OnDisable()             { *c.log = append(*c.log, c.name+".disable") }
func (c *recorder) OnUpdate(float64)       { *c.log = append(*c.log, c.name+".update") }
func (c *recorder) OnEditorUpdate(float64) { *c.log = append(*c.log, c.name+".editor") }
func (c *recorder) OnDestroy()             { *c.log = append(*c.log, c.name+".destroy") }
func (c *recorder) ComponentName() string  { return "Recorder" }

// triangle returns a single valid triangle.
func triangle() ([]Vertex, []uint32) {
	return []Vertex{
		{Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2}
}

// memLoader serves fixed pixels by path.
type memLoader struct {
	files map[string]Pixels
	loads int
}

func (m *memLoader) LoadPixels(path string) (Pixels, error) {
	m.loads++
	px, ok := m.files[path]
	if !ok {
		return Pixels{}, fmt.Errorf("no such file %s", path)
	}
	return px, nil
}

func solidPixels(w, h int) Pixels {
	return Pixels{Width: w, Height: h, Channels: 4, Data: make([]byte, w*h*4)}
}
