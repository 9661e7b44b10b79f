// Package spaghetti is a 3D scene-graph engine for [Ebitengine].
//
// A [Scene] owns a tree of entities rooted at [Scene.Root]. Entities carry
// behavior as components: a [TransformComponent] places them in space,
// [MeshComponent], [MaterialComponent] and [RendererComponent] make them
// visible, and user types embedding [BaseComponent] add game logic.
//
// # Quick start
//
// [Run] opens a window and drives the scene for you:
//
//	scene := spaghetti.NewScene("demo")
//	cube := scene.CreatePrimitive(spaghetti.PrimitiveCube, "Cube", nil)
//	spaghetti.AddComponent(cube, spaghetti.NewSpinner(mgl64.Vec3{0, 1, 0}, 1))
//	scene.Start()
//	spaghetti.Run(scene, spaghetti.RunConfig{
//		Title: "Demo", Width: 1280, Height: 720,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Render] with a render context built on
// [NewEbitenBackend] or on any other [Backend].
//
// # Lifecycle
//
// A scene starts stopped. [Scene.Start] calls OnStart on every component
// and begins play, [Scene.Pause] freezes Update, and [Scene.Stop] returns
// to the stopped state. OnEditorUpdate runs in every state so editor-only
// components keep working while the game is stopped.
//
// # Transforms
//
// World matrices are computed lazily. Moving an entity marks its subtree
// dirty, and [TransformComponent.GetWorldMatrix] recomputes only when a
// matrix was invalidated since the last read.
//
// # Rendering
//
// [Scene.Render] walks the tree depth first, skips inactive subtrees, and
// for each entity with a renderer binds its material and draws its mesh.
// Textures are shared through the [TextureCache]; a path that fails to
// load falls back to a checkerboard.
//
// Models are imported through an [Importer]; package spaghetti/gltf
// provides one for glTF 2.0 files.
//
// [Ebitengine]: https://ebitengine.org
package spaghetti
