package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettimaker/spaghetti"
)

var (
	// ErrNoSelection is returned when an image is dropped with nothing
	// selected.
	ErrNoSelection = errors.New("editor: no entity selected")
	// ErrUnsupportedFile is returned for dropped files of unknown type.
	ErrUnsupportedFile = errors.New("editor: unsupported file type")
	// ErrNoImporter is returned when a model is dropped on an editor
	// without an importer.
	ErrNoImporter = errors.New("editor: no model importer")
)

var (
	modelExts = map[string]bool{".gltf": true, ".glb": true}
	imageExts = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	}
)

// IsModelFile reports whether path has a model file extension.
func IsModelFile(path string) bool { return modelExts[strings.ToLower(filepath.Ext(path))] }

// IsImageFile reports whether path has an image file extension.
func IsImageFile(path string) bool { return imageExts[strings.ToLower(filepath.Ext(path))] }

// HandleDrop routes a dropped file. Models are imported under the root,
// selected and focused. Images become the diffuse texture of the selected
// entity's material; a material is added when the entity has none.
func (ed *Editor) HandleDrop(path string) error {
	switch {
	case IsModelFile(path):
		if ed.Importer == nil {
			return ErrNoImporter
		}
		e, err := ed.Scene.ImportModel(path, ed.Importer, nil)
		if err != nil {
			return err
		}
		ed.Scene.Select(e)
		ed.Scene.FocusOn(e)
		return nil

	case IsImageFile(path):
		sel := ed.Scene.Selected()
		if sel == nil {
			return ErrNoSelection
		}
		textures := ed.Textures()
		if textures == nil {
			return fmt.Errorf("editor: scene has no texture cache")
		}
		mat, ok := spaghetti.GetComponent[*spaghetti.MaterialComponent](sel)
		if !ok {
			mat = spaghetti.AddComponent(sel, spaghetti.NewMaterial())
		}
		return mat.SetDiffuseTexture(textures, path)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFile, filepath.Ext(path))
}

// HandleDrops handles each path in order and logs failures.
func (ed *Editor) HandleDrops(paths []string) {
	for _, p := range paths {
		if err := ed.HandleDrop(p); err != nil {
			spaghetti.Logger().Error("drop failed", "path", p, "err", err)
			continue
		}
		spaghetti.Logger().Info("dropped file handled", "path", p)
	}
}
