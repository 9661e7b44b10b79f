package spaghetti

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ImportedMaterial is the shading an importer found for a mesh.
type ImportedMaterial struct {
	Name      string
	Ambient   Color
	Diffuse   Color
	Specular  Color
	Shininess float64 // 0..1
	// DiffuseTexture is a file path, relative to the model file unless
	// absolute. Empty for untextured materials.
	DiffuseTexture string
}

// ImportedMesh is one triangle mesh of an imported node.
type ImportedMesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Material *ImportedMaterial
}

// ImportedNode is one node of an imported scene graph with its local
// transform.
type ImportedNode struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Meshes   []ImportedMesh
	Children []*ImportedNode
}

// Importer parses a 3D asset file into a node tree.
type Importer interface {
	Import(path string) (*ImportedNode, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(path string) (*ImportedNode, error)

// Import implements Importer.
func (f ImporterFunc) Import(path string) (*ImportedNode, error) { return f(path) }

// ImportModel runs imp on path and builds one entity per imported node under
// parent (the root when nil). The top entity is named after the file stem.
// Each node gets a transform; its first mesh goes on the node's entity and
// any further meshes on child entities. Importer failures wrap
// ErrImportFailed and an empty result returns ErrEmptyModel; in both cases
// the scene is unchanged.
func (s *Scene) ImportModel(path string, imp Importer, parent *Entity) (*Entity, error) {
	root, err := imp.Import(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrImportFailed, path, err)
	}
	if root == nil || (len(root.Meshes) == 0 && len(root.Children) == 0) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModel, path)
	}

	mi := modelImport{scene: s, dir: filepath.Dir(path)}
	top := mi.node(root, parent, modelStem(path))
	logger().Info("model imported", "path", path, "entities", mi.entities, "meshes", mi.meshes)
	return top, nil
}

func modelStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// modelImport carries per-import state through the node walk.
type modelImport struct {
	scene    *Scene
	dir      string
	entities int
	meshes   int
}

func (m *modelImport) node(n *ImportedNode, parent *Entity, name string) *Entity {
	if name == "" {
		name = n.Name
	}
	if name == "" {
		name = "Node"
	}
	e := m.scene.CreateEntity(name, parent)
	m.entities++

	t := NewTransform()
	t.position = n.Position
	if n.Rotation.Len() > 0 {
		t.rotation = n.Rotation.Normalize()
	}
	if n.Scale != (mgl64.Vec3{}) {
		t.scale = n.Scale
	}
	AddComponent(e, t)

	for i := range n.Meshes {
		target := e
		if i > 0 {
			meshName := n.Meshes[i].Name
			if meshName == "" {
				meshName = fmt.Sprintf("%s_mesh%d", name, i)
			}
			target = m.scene.CreateEntity(meshName, e)
			AddComponent(target, NewTransform())
			m.entities++
		}
		m.mesh(target, &n.Meshes[i])
	}

	for _, c := range n.Children {
		if c != nil {
			m.node(c, e, "")
		}
	}
	return e
}

func (m *modelImport) mesh(e *Entity, im *ImportedMesh) {
	mesh, err := NewMesh(im.Vertices, im.Indices)
	if err != nil {
		logger().Warn("skipping invalid mesh", "entity", e.name, "mesh", im.Name, "err", err)
		return
	}
	AddComponent(e, mesh)
	m.meshes++

	mat := NewMaterial()
	if src := im.Material; src != nil {
		mat.SetAmbient(src.Ambient)
		mat.SetDiffuse(src.Diffuse)
		mat.SetSpecular(src.Specular)
		mat.SetShininess(src.Shininess)
		if src.DiffuseTexture != "" && m.scene.ctx != nil && m.scene.ctx.Textures != nil {
			path := src.DiffuseTexture
			if !filepath.IsAbs(path) {
				path = filepath.Join(m.dir, path)
			}
			if err := mat.SetDiffuseTexture(m.scene.ctx.Textures, path); err != nil {
				logger().Warn("material texture missing", "entity", e.name, "path", path, "err", err)
			}
		}
	}
	AddComponent(e, mat)
	AddComponent(e, NewRenderer())
}
