package spaghetti

// Backend shininess is Shininess scaled by this factor.
const shininessScale = 128

// MaterialComponent holds the surface shading of an entity's mesh: ambient,
// diffuse and specular colors, a shininess in [0, 1] and a diffuse texture.
//
// With UseChecker set, or before a texture is assigned, the material
// samples the texture cache's checkerboard.
type MaterialComponent struct {
	BaseComponent

	ambient   Color
	diffuse   Color
	specular  Color
	shininess float64

	texture     *Texture
	textures    *TextureCache
	texturePath string
	useChecker  bool
}

// NewMaterial returns a material with ambient 0.2, diffuse 0.8, no
// specular and the checkerboard texture.
func NewMaterial() *MaterialComponent {
	return &MaterialComponent{
		ambient:    Color{0.2, 0.2, 0.2},
		diffuse:    Color{0.8, 0.8, 0.8},
		useChecker: true,
	}
}

func (m *MaterialComponent) Ambient() Color       { return m.ambient }
func (m *MaterialComponent) Diffuse() Color       { return m.diffuse }
func (m *MaterialComponent) Specular() Color      { return m.specular }
func (m *MaterialComponent) Shininess() float64   { return m.shininess }
func (m *MaterialComponent) UseChecker() bool     { return m.useChecker }
func (m *MaterialComponent) TexturePath() string  { return m.texturePath }
func (m *MaterialComponent) SetAmbient(c Color)   { m.ambient = c.Clamp() }
func (m *MaterialComponent) SetDiffuse(c Color)   { m.diffuse = c.Clamp() }
func (m *MaterialComponent) SetSpecular(c Color)  { m.specular = c.Clamp() }
func (m *MaterialComponent) SetUseChecker(v bool) { m.useChecker = v }

// SetShininess sets the shininess, clamped to [0, 1].
func (m *MaterialComponent) SetShininess(s float64) { m.shininess = clamp01(s) }

// Texture returns the assigned texture, which may be nil.
func (m *MaterialComponent) Texture() *Texture { return m.texture }

// SetTexture assigns t, acquiring it from its cache and releasing the
// previous texture. Assigning a non-default texture clears UseChecker.
func (m *MaterialComponent) SetTexture(t *Texture) {
	if t == m.texture {
		return
	}
	m.releaseTexture()
	m.texture = t
	if t == nil {
		m.textures = nil
		m.texturePath = ""
		m.useChecker = true
		return
	}
	m.textures = t.cache
	if m.textures != nil {
		m.textures.Acquire(t)
	}
	if t.IsDefault() {
		m.texturePath = ""
		m.useChecker = true
		return
	}
	m.texturePath = t.key
	m.useChecker = false
}

// SetDiffuseTexture loads path through textures and assigns the result.
// On failure the checkerboard is assigned and the load error returned.
func (m *MaterialComponent) SetDiffuseTexture(textures *TextureCache, path string) error {
	t, err := textures.Load(path)
	m.SetTexture(t)
	return err
}

func (m *MaterialComponent) releaseTexture() {
	if m.texture != nil && m.textures != nil {
		m.textures.Release(m.texture)
	}
}

// effectiveTexture resolves the texture sampled at draw time.
func (m *MaterialComponent) effectiveTexture(ctx *RenderContext) *Texture {
	if !m.useChecker && m.texture != nil {
		return m.texture
	}
	if ctx != nil && ctx.Textures != nil {
		return ctx.Textures.Default()
	}
	return nil
}

// State returns the backend shading state for ctx.
func (m *MaterialComponent) State(ctx *RenderContext) MaterialState {
	st := MaterialState{
		Ambient:   m.ambient,
		Diffuse:   m.diffuse,
		Specular:  m.specular,
		Shininess: m.shininess * shininessScale,
	}
	if t := m.effectiveTexture(ctx); t != nil {
		st.Texture = t.id
	}
	return st
}

// Bind sets the material state on the context's backend.
func (m *MaterialComponent) Bind(ctx *RenderContext) {
	ctx.Backend.SetMaterial(m.State(ctx))
}

// OnDestroy releases the texture.
func (m *MaterialComponent) OnDestroy() {
	m.releaseTexture()
	m.texture = nil
	m.textures = nil
}
