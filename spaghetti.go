package spaghetti

import (
	"errors"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	ColorBlack = Color{}
	ColorWhite = Color{1, 1, 1}
	ColorGray  = Color{0.2, 0.2, 0.2}
)

// Clamp returns c with every component limited to [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// Vec3 returns the color as a vector.
func (c Color) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{c.R, c.G, c.B}
}

// ColorFromVec3 converts a vector into a clamped Color.
func ColorFromVec3(v mgl64.Vec3) Color {
	return Color{v[0], v[1], v[2]}.Clamp()
}

// toRGBA converts to an opaque 8-bit color.
func (c Color) toRGBA() color.RGBA {
	c = c.Clamp()
	return color.RGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SceneState is the play state of a Scene.
type SceneState uint8

const (
	SceneStopped SceneState = iota // editing; Update is a no-op
	ScenePlaying                   // Update advances components
	ScenePaused                    // playing but Update is a no-op
)

func (s SceneState) String() string {
	switch s {
	case SceneStopped:
		return "stopped"
	case ScenePlaying:
		return "playing"
	case ScenePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// EventKind identifies a kind of SceneEvent.
type EventKind uint8

const (
	EventEntityCreated    EventKind = iota // an entity was created by the scene factory
	EventEntityDestroyed                   // an entity and its components were destroyed
	EventEntityReparented                  // an entity moved to a new parent
	EventComponentAdded                    // a component was attached to an entity
	EventComponentRemoved                  // a component was detached and destroyed
	EventScenePlay                         // Start moved the scene from stopped to playing
	EventScenePause                        // Pause(true) while playing
	EventSceneResume                       // Pause(false) while playing
	EventSceneStop                         // Stop moved the scene back to stopped
	EventSelectionChanged                  // the editor selection changed
)

var eventKindNames = [...]string{
	EventEntityCreated:    "entity-created",
	EventEntityDestroyed:  "entity-destroyed",
	EventEntityReparented: "entity-reparented",
	EventComponentAdded:   "component-added",
	EventComponentRemoved: "component-removed",
	EventScenePlay:        "scene-play",
	EventScenePause:       "scene-pause",
	EventSceneResume:      "scene-resume",
	EventSceneStop:        "scene-stop",
	EventSelectionChanged: "selection-changed",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// PrimitiveKind selects a generated mesh for Scene.CreatePrimitive.
type PrimitiveKind uint8

const (
	PrimitiveCube PrimitiveKind = iota
	PrimitiveSphere
	PrimitivePlane
)

func (p PrimitiveKind) String() string {
	switch p {
	case PrimitiveCube:
		return "Cube"
	case PrimitiveSphere:
		return "Sphere"
	case PrimitivePlane:
		return "Plane"
	default:
		return "Primitive"
	}
}

var (
	// ErrCycle is returned by SetParent when the new parent is the entity
	// itself or one of its descendants.
	ErrCycle = errors.New("spaghetti: parenting would create a cycle")
	// ErrRootEntity is returned when an operation would move or destroy the
	// scene root.
	ErrRootEntity = errors.New("spaghetti: operation not allowed on scene root")
	// ErrForeignEntity is returned when entities from different scenes are linked.
	ErrForeignEntity = errors.New("spaghetti: entity belongs to another scene")
	// ErrDestroyed is returned for operations on destroyed entities.
	ErrDestroyed = errors.New("spaghetti: entity destroyed")
	// ErrComponentOwned is returned when a component is attached twice.
	ErrComponentOwned = errors.New("spaghetti: component already has an owner")
	// ErrIndexOutOfRange is returned when mesh indices reference missing vertices.
	ErrIndexOutOfRange = errors.New("spaghetti: mesh index out of range")
	// ErrTriangleList is returned when the index count is not a multiple of 3.
	ErrTriangleList = errors.New("spaghetti: index count is not a multiple of 3")
	// ErrImportFailed wraps importer failures.
	ErrImportFailed = errors.New("spaghetti: model import failed")
	// ErrEmptyModel is returned when an import produced no nodes.
	ErrEmptyModel = errors.New("spaghetti: model contains no nodes")
	// ErrTextureLoad wraps texture loader failures.
	ErrTextureLoad = errors.New("spaghetti: texture load failed")
)
