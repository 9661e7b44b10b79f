// Package editor is the scene editor UI: hierarchy, inspector, console and
// texture panels drawn with Dear ImGui, plus file drop routing and texture
// hot reload.
//
// The panels only read and mutate the scene through its public API, so the
// same editor logic runs headless in tests; only Draw needs an ImGui frame.
package editor

import (
	"fmt"

	"github.com/spaghettimaker/spaghetti"
)

// Editor holds the state of the editor panels for one scene.
type Editor struct {
	Scene    *spaghetti.Scene
	Importer spaghetti.Importer
	Console  *ConsoleHandler
	// Watcher, if set, is drained every Update.
	Watcher *Watcher

	added  int
	rename string
	nameOf spaghetti.EntityID
}

// New returns an editor for scene. console may be nil, in which case the
// console panel stays empty.
func New(scene *spaghetti.Scene, importer spaghetti.Importer, console *ConsoleHandler) *Editor {
	return &Editor{Scene: scene, Importer: importer, Console: console}
}

// Textures returns the texture cache of the scene's render context, or nil.
func (ed *Editor) Textures() *spaghetti.TextureCache {
	if ctx := ed.Scene.RenderContext(); ctx != nil {
		return ctx.Textures
	}
	return nil
}

// Update applies pending texture reloads. Call it once per tick from the
// thread that renders.
func (ed *Editor) Update() {
	if ed.Watcher != nil {
		ed.Watcher.Drain()
	}
}

// AddEntity creates an entity with a transform under the selection, or
// under the root when nothing is selected, and selects it.
func (ed *Editor) AddEntity() *spaghetti.Entity {
	ed.added++
	e := ed.Scene.CreateEntity(fmt.Sprintf("GameObject %d", ed.added), ed.Scene.Selected())
	spaghetti.AddComponent(e, spaghetti.NewTransform())
	ed.Scene.Select(e)
	return e
}

// AddPrimitive creates a primitive under the selection and selects it.
func (ed *Editor) AddPrimitive(kind spaghetti.PrimitiveKind) *spaghetti.Entity {
	e := ed.Scene.CreatePrimitive(kind, "", ed.Scene.Selected())
	ed.Scene.Select(e)
	return e
}

// DeleteSelected destroys the selected entity and its subtree.
func (ed *Editor) DeleteSelected() bool {
	return ed.Scene.DestroyEntity(ed.Scene.Selected())
}

// TogglePlay starts a stopped scene and stops a playing one.
func (ed *Editor) TogglePlay() {
	if ed.Scene.IsPlaying() {
		ed.Scene.Stop()
		return
	}
	ed.Scene.Start()
}

// TogglePause pauses or resumes a playing scene.
func (ed *Editor) TogglePause() {
	ed.Scene.Pause(!ed.Scene.IsPaused())
}

// HierarchyRow is one visible line of the hierarchy panel.
type HierarchyRow struct {
	Entity *spaghetti.Entity
	Depth  int
}

// HierarchyRows flattens the entity tree below the root in pre-order.
func (ed *Editor) HierarchyRows() []HierarchyRow {
	var rows []HierarchyRow
	var walk func(e *spaghetti.Entity, depth int)
	walk = func(e *spaghetti.Entity, depth int) {
		for _, c := range e.Children() {
			rows = append(rows, HierarchyRow{Entity: c, Depth: depth})
			walk(c, depth+1)
		}
	}
	walk(ed.Scene.Root(), 0)
	return rows
}
