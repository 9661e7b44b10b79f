package editor

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// Overlay draws the editor over a running scene. It implements
// spaghetti.Overlay.
type Overlay struct {
	Editor *Editor
	ui     *ebitenbackend.EbitenBackend
}

// NewOverlay creates the ImGui backend and its window.
func NewOverlay(ed *Editor, title string, width, height int) *Overlay {
	ui := ebitenbackend.NewEbitenBackend()
	ui.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &Overlay{Editor: ed, ui: ui}
}

// Update builds this tick's ImGui frame.
func (o *Overlay) Update(float64) {
	o.ui.BeginFrame()
	o.Editor.Update()
	o.Editor.Draw()
	o.ui.EndFrame()
}

// Draw renders the ImGui frame onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	o.ui.Draw(screen)
}

// Layout forwards the window size to ImGui.
func (o *Overlay) Layout(width, height int) {
	o.ui.Layout(width, height)
}

// WantsMouse reports whether ImGui is using the mouse this frame.
func (o *Overlay) WantsMouse() bool {
	return imgui.CurrentIO().WantCaptureMouse()
}

// WantsKeyboard reports whether ImGui is using the keyboard this frame.
func (o *Overlay) WantsKeyboard() bool {
	return imgui.CurrentIO().WantCaptureKeyboard()
}
