// Package gltf imports glTF 2.0 models (.gltf and .glb) into spaghetti
// scenes.
//
// Usage:
//
//	top, err := scene.ImportModel("assets/duck.glb", gltf.Importer{}, nil)
package gltf

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettimaker/spaghetti"
)

// ErrNoScene is returned for documents without nodes to import.
var ErrNoScene = errors.New("gltf: document has no scene nodes")

// Importer implements spaghetti.Importer for glTF files.
type Importer struct {
	// ExtractDir receives images embedded in the model so the texture
	// cache can open them by path. Empty uses a directory under
	// os.TempDir.
	ExtractDir string
}

// Import opens path and converts the default scene (or the first one) into
// a node tree. The returned root holds the scene's top-level nodes as
// children.
func (imp Importer) Import(path string) (*spaghetti.ImportedNode, error) {
	doc, err := qgltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	c := &converter{
		doc:        doc,
		path:       path,
		extractDir: imp.ExtractDir,
		materials:  make(map[int]*spaghetti.ImportedMaterial),
		images:     make(map[int]string),
	}
	return c.scene()
}

// converter holds per-document state for one Import call.
type converter struct {
	doc        *qgltf.Document
	path       string
	extractDir string

	materials map[int]*spaghetti.ImportedMaterial
	images    map[int]string
	depth     int
}

// maxNodeDepth bounds the node walk against cyclic documents.
const maxNodeDepth = 256

func (c *converter) scene() (*spaghetti.ImportedNode, error) {
	roots := c.rootNodes()
	if len(roots) == 0 {
		return nil, ErrNoScene
	}
	root := &spaghetti.ImportedNode{
		Name:     c.sceneName(),
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
	for _, idx := range roots {
		n, err := c.node(idx)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, n)
	}
	return root, nil
}

// rootNodes returns the node indices of the default scene, the first scene,
// or every node that is nobody's child when the document has no scenes.
func (c *converter) rootNodes() []int {
	doc := c.doc
	if len(doc.Scenes) > 0 {
		i := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			i = *doc.Scene
		}
		return doc.Scenes[i].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, ch := range n.Children {
			if ch < len(isChild) {
				isChild[ch] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

func (c *converter) sceneName() string {
	if len(c.doc.Scenes) > 0 && c.doc.Scene != nil && *c.doc.Scene < len(c.doc.Scenes) {
		return c.doc.Scenes[*c.doc.Scene].Name
	}
	return ""
}

func (c *converter) node(idx int) (*spaghetti.ImportedNode, error) {
	if idx < 0 || idx >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if c.depth >= maxNodeDepth {
		return nil, fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}
	c.depth++
	defer func() { c.depth-- }()

	src := c.doc.Nodes[idx]
	out := &spaghetti.ImportedNode{Name: src.Name}
	out.Position, out.Rotation, out.Scale = nodeTRS(src)

	if src.Mesh != nil {
		meshes, err := c.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		out.Meshes = meshes
	}
	for _, ch := range src.Children {
		n, err := c.node(ch)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, n)
	}
	return out, nil
}

// nodeTRS returns the node's local transform. A non-identity matrix wins
// over the TRS properties.
func nodeTRS(n *qgltf.Node) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	m := mgl64.Mat4(n.Matrix)
	if m != (mgl64.Mat4{}) && m != mgl64.Ident4() {
		return decompose(m)
	}
	pos := mgl64.Vec3(n.Translation)
	r := n.Rotation
	rot := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	scale := mgl64.Vec3(n.Scale)
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	return pos, rot.Normalize(), scale
}

// decompose splits an affine matrix without shear into TRS.
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	pos := m.Col(3).Vec3()
	scale := mgl64.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	var r mgl64.Mat4
	for i := 0; i < 3; i++ {
		col := m.Col(i)
		if scale[i] != 0 {
			col = col.Mul(1 / scale[i])
		}
		col[3] = 0
		r.SetCol(i, col)
	}
	r.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	return pos, mgl64.Mat4ToQuat(r).Normalize(), scale
}

// mesh converts every triangle primitive of mesh idx. Primitives in other
// modes are skipped.
func (c *converter) mesh(idx int) ([]spaghetti.ImportedMesh, error) {
	if idx < 0 || idx >= len(c.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	src := c.doc.Meshes[idx]
	var out []spaghetti.ImportedMesh
	for i, p := range src.Primitives {
		if p.Mode != qgltf.PrimitiveTriangles {
			continue
		}
		m, err := c.primitive(p)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", src.Name, i, err)
		}
		m.Name = src.Name
		if i > 0 && src.Name != "" {
			m.Name = fmt.Sprintf("%s_%d", src.Name, i)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *converter) accessor(idx int) (*qgltf.Accessor, error) {
	if idx < 0 || idx >= len(c.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return c.doc.Accessors[idx], nil
}

func (c *converter) primitive(p *qgltf.Primitive) (spaghetti.ImportedMesh, error) {
	var out spaghetti.ImportedMesh

	posIdx, ok := p.Attributes[qgltf.POSITION]
	if !ok {
		return out, errors.New("missing POSITION attribute")
	}
	acr, err := c.accessor(posIdx)
	if err != nil {
		return out, err
	}
	positions, err := modeler.ReadPosition(c.doc, acr, nil)
	if err != nil {
		return out, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := p.Attributes[qgltf.NORMAL]; ok {
		if acr, err = c.accessor(idx); err != nil {
			return out, err
		}
		if normals, err = modeler.ReadNormal(c.doc, acr, nil); err != nil {
			return out, fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := p.Attributes[qgltf.TEXCOORD_0]; ok {
		if acr, err = c.accessor(idx); err != nil {
			return out, err
		}
		if uvs, err = modeler.ReadTextureCoord(c.doc, acr, nil); err != nil {
			return out, fmt.Errorf("read texcoords: %w", err)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if acr, err = c.accessor(*p.Indices); err != nil {
			return out, err
		}
		if indices, err = modeler.ReadIndices(c.doc, acr, nil); err != nil {
			return out, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	out.Vertices = make([]spaghetti.Vertex, len(positions))
	for i, pos := range positions {
		v := &out.Vertices[i]
		v.Position = mgl32.Vec3(pos)
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			// glTF puts the UV origin top-left.
			v.TexCoord = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
	}
	if len(normals) < len(positions) {
		smoothNormals(out.Vertices, indices)
	}
	out.Indices = indices

	if p.Material != nil {
		out.Material = c.material(*p.Material)
	}
	return out, nil
}

// smoothNormals sets each vertex normal to the normalized sum of the face
// normals of the triangles that use it.
func smoothNormals(verts []spaghetti.Vertex, indices []uint32) {
	acc := make([]mgl32.Vec3, len(verts))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(verts) || int(b) >= len(verts) || int(c) >= len(verts) {
			continue
		}
		pa, pb, pc := verts[a].Position, verts[b].Position, verts[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	for i := range verts {
		if acc[i].Len() > 0 {
			verts[i].Normal = acc[i].Normalize()
		}
	}
}

// material maps a metallic-roughness material onto the Phong parameters.
// Unknown indices yield nil and the mesh gets the default material.
func (c *converter) material(idx int) *spaghetti.ImportedMaterial {
	if m, ok := c.materials[idx]; ok {
		return m
	}
	if idx < 0 || idx >= len(c.doc.Materials) {
		return nil
	}
	src := c.doc.Materials[idx]
	out := &spaghetti.ImportedMaterial{
		Name:     src.Name,
		Ambient:  spaghetti.Color{R: 0.2, G: 0.2, B: 0.2},
		Diffuse:  spaghetti.ColorWhite,
		Specular: spaghetti.ColorBlack,
	}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			out.Diffuse = spaghetti.Color{R: f[0], G: f[1], B: f[2]}
		}
		rough := 1.0
		if pbr.RoughnessFactor != nil {
			rough = *pbr.RoughnessFactor
		}
		gloss := 1 - rough
		out.Specular = spaghetti.Color{R: gloss, G: gloss, B: gloss}
		out.Shininess = gloss
		if t := pbr.BaseColorTexture; t != nil {
			out.DiffuseTexture = c.texture(t.Index)
		}
	}
	c.materials[idx] = out
	return out
}

// texture returns a file path for texture idx, extracting embedded images.
func (c *converter) texture(idx int) string {
	if idx < 0 || idx >= len(c.doc.Textures) || c.doc.Textures[idx].Source == nil {
		return ""
	}
	img := *c.doc.Textures[idx].Source
	if p, ok := c.images[img]; ok {
		return p
	}
	p, err := c.imagePath(img)
	if err != nil {
		spaghetti.Logger().Warn("gltf: texture image unavailable", "model", c.path, "image", img, "err", err)
	}
	c.images[img] = p
	return p
}

func (c *converter) imagePath(idx int) (string, error) {
	if idx < 0 || idx >= len(c.doc.Images) {
		return "", fmt.Errorf("image index %d out of range", idx)
	}
	img := c.doc.Images[idx]
	switch {
	case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
		// Relative URIs resolve against the model directory in ImportModel.
		return filepath.FromSlash(img.URI), nil
	case strings.HasPrefix(img.URI, "data:"):
		data, err := decodeDataURI(img.URI)
		if err != nil {
			return "", err
		}
		return c.extract(idx, img.MimeType, data)
	case img.BufferView != nil:
		if *img.BufferView >= len(c.doc.BufferViews) {
			return "", fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		data, err := modeler.ReadBufferView(c.doc, c.doc.BufferViews[*img.BufferView])
		if err != nil {
			return "", err
		}
		return c.extract(idx, img.MimeType, data)
	}
	return "", errors.New("image has no source")
}

func decodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, errors.New("unsupported data URI encoding")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// extract writes embedded image data to the extract directory and returns
// its absolute path.
func (c *converter) extract(idx int, mime string, data []byte) (string, error) {
	dir := c.extractDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "spaghetti-textures")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ext := ".png"
	if mime == "image/jpeg" {
		ext = ".jpg"
	}
	stem := strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
	p, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("%s_image%d%s", stem, idx, ext)))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}
