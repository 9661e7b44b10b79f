package spaghetti

import (
	"image"
	"image/color"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/kamstrup/intmap"
)

// lineWidth is the on-screen width of debug lines in pixels.
const lineWidth = 1.5

// nearW rejects vertices at or behind the eye plane.
const nearW = 1e-4

// EbitenStats counts the work done by the last EbitenBackend frame.
type EbitenStats struct {
	Triangles int // triangles submitted
	Culled    int // back faces and triangles behind the eye
	Batches   int // DrawTriangles32 calls
	Lines     int
}

type meshBuffer struct {
	vertices []Vertex
	indices  []uint32
}

// screenTri is one projected triangle waiting for the depth sort.
type screenTri struct {
	v     [3]ebiten.Vertex
	depth float32
	tex   TextureID
}

type screenLine struct {
	x0, y0, x1, y1 float32
	c              Color
}

// EbitenBackend is a software-transform Backend that rasterizes through
// ebiten's DrawTriangles32. Vertices are transformed and lit on the CPU,
// triangles are depth sorted back to front, and consecutive triangles that
// share a texture go out in a single draw call.
//
// Set the destination with SetTarget before each Scene.Render.
type EbitenBackend struct {
	target *ebiten.Image
	white  *ebiten.Image

	buffers     *intmap.Map[BufferID, *meshBuffer]
	textures    *intmap.Map[TextureID, *ebiten.Image]
	nextBuffer  BufferID
	nextTexture TextureID

	bound    *meshBuffer
	model    mgl32.Mat4
	mvp      mgl32.Mat4
	normal   mgl32.Mat3
	material MaterialState

	frame    Frame
	viewProj mgl32.Mat4
	eye      mgl32.Vec3
	light    mgl32.Vec3
	width    float32
	height   float32

	tris  []screenTri
	lines []screenLine

	// Reusable batch buffers; they grow to the frame's high-water mark.
	verts []ebiten.Vertex
	inds  []uint32

	stats EbitenStats
}

// NewEbitenBackend returns a backend with no target.
func NewEbitenBackend() *EbitenBackend {
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	return &EbitenBackend{
		white:    white,
		buffers:  intmap.New[BufferID, *meshBuffer](64),
		textures: intmap.New[TextureID, *ebiten.Image](16),
		model:    mgl32.Ident4(),
		mvp:      mgl32.Ident4(),
		normal:   mgl32.Ident3(),
	}
}

// SetTarget sets the image the next frame is drawn into.
func (b *EbitenBackend) SetTarget(img *ebiten.Image) { b.target = img }

// Stats returns the counters of the last finished frame.
func (b *EbitenBackend) Stats() EbitenStats { return b.stats }

// --- Buffers ---

func (b *EbitenBackend) CreateBuffer() BufferID {
	b.nextBuffer++
	b.buffers.Put(b.nextBuffer, &meshBuffer{})
	return b.nextBuffer
}

func (b *EbitenBackend) DestroyBuffer(id BufferID) {
	if buf, ok := b.buffers.Get(id); ok && buf == b.bound {
		b.bound = nil
	}
	b.buffers.Del(id)
}

func (b *EbitenBackend) UploadVertices(id BufferID, vertices []Vertex) {
	if buf, ok := b.buffers.Get(id); ok {
		buf.vertices = append(buf.vertices[:0], vertices...)
	}
}

func (b *EbitenBackend) UploadIndices(id BufferID, indices []uint32) {
	if buf, ok := b.buffers.Get(id); ok {
		buf.indices = append(buf.indices[:0], indices...)
	}
}

func (b *EbitenBackend) BindBuffer(id BufferID) {
	b.bound, _ = b.buffers.Get(id)
}

// --- Textures ---

func (b *EbitenBackend) CreateTexture(px Pixels) TextureID {
	b.nextTexture++
	b.textures.Put(b.nextTexture, ebiten.NewImageFromImage(px.RGBA()))
	return b.nextTexture
}

func (b *EbitenBackend) DestroyTexture(id TextureID) {
	if img, ok := b.textures.Get(id); ok {
		img.Deallocate()
		b.textures.Del(id)
	}
}

// --- State ---

func (b *EbitenBackend) SetModelMatrix(m mgl64.Mat4) {
	b.model = mat4To32(m)
	b.mvp = b.viewProj.Mul4(b.model)
	b.normal = b.model.Mat3().Inv().Transpose()
}

func (b *EbitenBackend) SetMaterial(m MaterialState) { b.material = m }

// --- Frame ---

// BeginFrame clears the target and captures the camera for the frame.
func (b *EbitenBackend) BeginFrame(f Frame) {
	b.frame = f
	b.viewProj = mat4To32(f.Projection.Mul4(f.View))
	b.mvp = b.viewProj.Mul4(b.model)
	b.eye = vec3To32(f.Eye)
	b.light = vec3To32(f.Settings.LightDir.Mul(-1))
	if b.light.Len() > 0 {
		b.light = b.light.Normalize()
	}
	b.tris = b.tris[:0]
	b.lines = b.lines[:0]
	b.stats = EbitenStats{}
	if b.target == nil {
		return
	}
	bounds := b.target.Bounds()
	b.width, b.height = float32(bounds.Dx()), float32(bounds.Dy())
	b.target.Fill(f.Settings.ClearColor.toRGBA())
}

// DrawIndexed projects and shades count indices of the bound buffer.
func (b *EbitenBackend) DrawIndexed(count int) {
	buf := b.bound
	if buf == nil || b.target == nil {
		return
	}
	count = min(count, len(buf.indices))
	tex, texW, texH := b.materialTexture()
	settings := b.frame.Settings

	for i := 0; i+2 < count; i += 3 {
		b.stats.Triangles++
		var tri screenTri
		visible := true
		for k := 0; k < 3; k++ {
			v := buf.vertices[buf.indices[i+k]]
			sv, z, ok := b.project(v.Position)
			if !ok {
				visible = false
				break
			}
			sv.SrcX = v.TexCoord[0] * texW
			sv.SrcY = (1 - v.TexCoord[1]) * texH
			r, g, bl := b.shade(v)
			sv.ColorR, sv.ColorG, sv.ColorB, sv.ColorA = r, g, bl, 1
			tri.v[k] = sv
			tri.depth += z / 3
		}
		if !visible {
			b.stats.Culled++
			continue
		}
		if settings.CullBackFaces && signedArea(&tri) >= 0 {
			b.stats.Culled++
			continue
		}
		if settings.Wireframe {
			c := b.material.Diffuse
			for k := 0; k < 3; k++ {
				p, q := tri.v[k], tri.v[(k+1)%3]
				b.lines = append(b.lines, screenLine{p.DstX, p.DstY, q.DstX, q.DstY, c})
			}
			continue
		}
		tri.tex = tex
		b.tris = append(b.tris, tri)
	}
}

// DrawLines projects the segments with the current model matrix. Lines are
// drawn over the triangles.
func (b *EbitenBackend) DrawLines(segments []LineSegment, c Color) {
	if b.target == nil {
		return
	}
	for _, s := range segments {
		p, _, ok0 := b.project(vec3To32(s.From))
		q, _, ok1 := b.project(vec3To32(s.To))
		if !ok0 || !ok1 {
			continue
		}
		b.lines = append(b.lines, screenLine{p.DstX, p.DstY, q.DstX, q.DstY, c})
	}
}

// EndFrame sorts the frame's triangles back to front and submits them.
func (b *EbitenBackend) EndFrame() {
	if b.target == nil {
		return
	}
	sort.SliceStable(b.tris, func(i, j int) bool { return b.tris[i].depth > b.tris[j].depth })

	b.verts, b.inds = b.verts[:0], b.inds[:0]
	var cur TextureID
	for i := range b.tris {
		t := &b.tris[i]
		if t.tex != cur && len(b.verts) > 0 {
			b.flush(cur)
		}
		cur = t.tex
		base := uint32(len(b.verts))
		b.verts = append(b.verts, t.v[0], t.v[1], t.v[2])
		b.inds = append(b.inds, base, base+1, base+2)
	}
	if len(b.verts) > 0 {
		b.flush(cur)
	}

	for _, l := range b.lines {
		b.appendLineQuad(l)
	}
	if len(b.verts) > 0 {
		b.flush(0)
	}
	b.stats.Lines = len(b.lines)
}

func (b *EbitenBackend) flush(tex TextureID) {
	src := b.white
	if img, ok := b.textures.Get(tex); ok {
		src = img
	}
	var op ebiten.DrawTrianglesOptions
	op.Address = ebiten.AddressRepeat
	b.target.DrawTriangles32(b.verts, b.inds, src, &op)
	b.stats.Batches++
	b.verts, b.inds = b.verts[:0], b.inds[:0]
}

func (b *EbitenBackend) appendLineQuad(l screenLine) {
	dx, dy := l.x1-l.x0, l.y1-l.y0
	n := math32.Sqrt(dx*dx + dy*dy)
	if n == 0 {
		return
	}
	ox, oy := -dy/n*lineWidth/2, dx/n*lineWidth/2
	r, g, bl := float32(l.c.R), float32(l.c.G), float32(l.c.B)
	base := uint32(len(b.verts))
	for _, p := range [4][2]float32{
		{l.x0 + ox, l.y0 + oy}, {l.x1 + ox, l.y1 + oy},
		{l.x1 - ox, l.y1 - oy}, {l.x0 - ox, l.y0 - oy},
	} {
		b.verts = append(b.verts, ebiten.Vertex{
			DstX: p[0], DstY: p[1], SrcX: 0.5, SrcY: 0.5,
			ColorR: r, ColorG: g, ColorB: bl, ColorA: 1,
		})
	}
	b.inds = append(b.inds, base, base+1, base+2, base, base+2, base+3)
}

// materialTexture resolves the bound material's texture and its size in
// source pixels.
func (b *EbitenBackend) materialTexture() (TextureID, float32, float32) {
	img, ok := b.textures.Get(b.material.Texture)
	if !ok {
		return 0, 1, 1
	}
	s := img.Bounds().Size()
	return b.material.Texture, float32(s.X), float32(s.Y)
}

// project maps a model-space position to screen space. ok is false when
// the vertex lies behind the eye.
func (b *EbitenBackend) project(p mgl32.Vec3) (ebiten.Vertex, float32, bool) {
	clip := b.mvp.Mul4x1(p.Vec4(1))
	if clip[3] <= nearW {
		return ebiten.Vertex{}, 0, false
	}
	inv := 1 / clip[3]
	x, y, z := clip[0]*inv, clip[1]*inv, clip[2]*inv
	return ebiten.Vertex{
		DstX: (x + 1) / 2 * b.width,
		DstY: (1 - y) / 2 * b.height,
	}, z, true
}

// shade returns the Blinn-Phong color of v under the frame's directional
// light, or the flat diffuse color when lighting is off.
func (b *EbitenBackend) shade(v Vertex) (float32, float32, float32) {
	m := b.material
	if !b.frame.Settings.Lighting {
		return float32(m.Diffuse.R), float32(m.Diffuse.G), float32(m.Diffuse.B)
	}
	n := b.normal.Mul3x1(v.Normal)
	if n.Len() > 0 {
		n = n.Normalize()
	}
	diff := math32.Max(0, n.Dot(b.light))
	var specular float32
	if m.Shininess > 0 && diff > 0 {
		world := b.model.Mul4x1(v.Position.Vec4(1)).Vec3()
		view := b.eye.Sub(world)
		if view.Len() > 0 {
			h := b.light.Add(view.Normalize())
			if h.Len() > 0 {
				specular = math32.Pow(math32.Max(0, n.Dot(h.Normalize())), float32(m.Shininess))
			}
		}
	}
	ch := func(a, d, s float64) float32 {
		return math32.Min(1, float32(a)+float32(d)*diff+float32(s)*specular)
	}
	return ch(m.Ambient.R, m.Diffuse.R, m.Specular.R),
		ch(m.Ambient.G, m.Diffuse.G, m.Specular.G),
		ch(m.Ambient.B, m.Diffuse.B, m.Specular.B)
}

// signedArea is twice the signed screen-space area. Counter-clockwise
// triangles in view space come out negative because screen Y points down.
func signedArea(t *screenTri) float32 {
	a, b, c := t.v[0], t.v[1], t.v[2]
	return (b.DstX-a.DstX)*(c.DstY-a.DstY) - (c.DstX-a.DstX)*(b.DstY-a.DstY)
}

func mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}

func vec3To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// ReadImage copies the target into an RGBA image with straight alpha.
func (b *EbitenBackend) ReadImage() *image.NRGBA {
	if b.target == nil {
		return nil
	}
	return readNRGBA(b.target)
}
