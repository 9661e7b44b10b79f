package spaghetti

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BufferID is a backend handle to an uploaded vertex/index buffer pair.
// Zero is never a valid handle.
type BufferID uint32

// TextureID is a backend handle to an uploaded texture. Zero means none.
type TextureID uint32

// MaterialState is the shading state bound before a draw call.
type MaterialState struct {
	Ambient   Color
	Diffuse   Color
	Specular  Color
	Shininess float64 // specular exponent, 0..128
	Texture   TextureID
}

// LineSegment is a debug line in model space.
type LineSegment struct {
	From, To mgl64.Vec3
}

// RenderSettings are the global rasterizer switches.
type RenderSettings struct {
	Wireframe     bool
	CullBackFaces bool
	Lighting      bool
	ShowAxes      bool // draw each transform's local axes
	ClearColor    Color
	LightDir      mgl64.Vec3 // direction the light travels, world space
}

// DefaultRenderSettings returns culling and lighting on, a dark gray clear
// color and a light shining down and away from the viewer.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		CullBackFaces: true,
		Lighting:      true,
		ClearColor:    ColorGray,
		LightDir:      mgl64.Vec3{-0.4, -1, -0.6}.Normalize(),
	}
}

// Frame describes one rendered view.
type Frame struct {
	View       mgl64.Mat4
	Projection mgl64.Mat4
	Eye        mgl64.Vec3
	Settings   RenderSettings
}

// Backend is the GPU capability the engine draws through. Handles returned
// by CreateBuffer and CreateTexture are owned by the caller and released
// exactly once with the matching Destroy call.
type Backend interface {
	CreateBuffer() BufferID
	DestroyBuffer(id BufferID)
	UploadVertices(id BufferID, vertices []Vertex)
	UploadIndices(id BufferID, indices []uint32)
	BindBuffer(id BufferID)

	CreateTexture(px Pixels) TextureID
	DestroyTexture(id TextureID)

	SetModelMatrix(m mgl64.Mat4)
	SetMaterial(m MaterialState)
	// DrawIndexed draws count indices from the bound buffer as triangles.
	DrawIndexed(count int)
	DrawLines(segments []LineSegment, c Color)

	BeginFrame(f Frame)
	EndFrame()
}

// RenderContext bundles the backend and the texture cache for one
// application session. It replaces any process-wide renderer or texture
// manager state: create it at startup, hand it to scenes, Close it at
// shutdown.
type RenderContext struct {
	Backend  Backend
	Textures *TextureCache
	Settings RenderSettings
}

// NewRenderContext creates a context whose texture cache uploads through b
// and decodes files with loader. A nil loader uses ImageLoader.
func NewRenderContext(b Backend, loader TextureLoader) *RenderContext {
	if loader == nil {
		loader = ImageLoader{}
	}
	return &RenderContext{
		Backend:  b,
		Textures: NewTextureCache(b, loader),
		Settings: DefaultRenderSettings(),
	}
}

// Close releases every texture held by the cache, including the default.
func (c *RenderContext) Close() {
	if c.Textures != nil {
		c.Textures.Close()
	}
}
