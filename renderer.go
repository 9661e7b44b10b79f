package spaghetti

// RendererComponent ties an entity's mesh and material together for the
// render traversal and lets the editor hide the entity without disabling
// it. Children of a hidden entity still render.
type RendererComponent struct {
	BaseComponent

	hidden   bool
	mesh     *MeshComponent
	material *MaterialComponent
}

// NewRenderer returns a visible renderer.
func NewRenderer() *RendererComponent {
	return &RendererComponent{}
}

// IsVisible reports whether the owner's mesh is drawn.
func (r *RendererComponent) IsVisible() bool { return !r.hidden }

// SetVisible shows or hides the owner's mesh.
func (r *RendererComponent) SetVisible(v bool) { r.hidden = !v }

// OnStart caches the owner's mesh and material.
func (r *RendererComponent) OnStart() {
	r.mesh, _ = GetComponent[*MeshComponent](r.owner)
	r.material, _ = GetComponent[*MaterialComponent](r.owner)
}

// OnDestroy drops the cached references.
func (r *RendererComponent) OnDestroy() {
	r.mesh = nil
	r.material = nil
}

// resolve returns the cached mesh and material, refreshing a reference
// that was removed from the owner or never found.
func (r *RendererComponent) resolve() (*MeshComponent, *MaterialComponent) {
	if r.mesh == nil || r.mesh.owner != r.owner {
		r.mesh, _ = GetComponent[*MeshComponent](r.owner)
	}
	if r.material == nil || r.material.owner != r.owner {
		r.material, _ = GetComponent[*MaterialComponent](r.owner)
	}
	return r.mesh, r.material
}
