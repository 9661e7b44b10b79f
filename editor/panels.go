package editor

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/spaghettimaker/spaghetti"
)

// Draw renders every editor panel. It must run between the ImGui backend's
// BeginFrame and EndFrame.
func (ed *Editor) Draw() {
	ed.drawHierarchy()
	ed.drawInspector()
	ed.drawConsole()
	ed.drawTextures()
}

func (ed *Editor) drawHierarchy() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 60), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(260, 420), imgui.CondOnce)
	if !imgui.BeginV("Hierarchy", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	play := "Play"
	if ed.Scene.IsPlaying() {
		play = "Stop"
	}
	if imgui.Button(play) {
		ed.TogglePlay()
	}
	imgui.SameLine()
	pause := "Pause"
	if ed.Scene.IsPaused() {
		pause = "Resume"
	}
	if imgui.Button(pause) {
		ed.TogglePause()
	}
	imgui.SameLine()
	imgui.Text(ed.Scene.State().String())

	if imgui.Button("Add") {
		ed.AddEntity()
	}
	for _, k := range []spaghetti.PrimitiveKind{spaghetti.PrimitiveCube, spaghetti.PrimitiveSphere, spaghetti.PrimitivePlane} {
		imgui.SameLine()
		if imgui.Button(k.String()) {
			ed.AddPrimitive(k)
		}
	}
	imgui.SameLine()
	if imgui.Button("Delete") {
		ed.DeleteSelected()
	}
	imgui.Separator()

	selected := ed.Scene.Selected()
	for _, row := range ed.HierarchyRows() {
		e := row.Entity
		label := strings.Repeat("  ", row.Depth) + e.Name()
		if !e.IsActive() {
			label += " (inactive)"
		}
		label += "##" + e.ID().String()
		if imgui.SelectableBoolV(label, e == selected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
			ed.Scene.Select(e)
		}
	}
	imgui.End()
}

func (ed *Editor) drawInspector() {
	imgui.SetNextWindowPosV(imgui.NewVec2(980, 60), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(290, 420), imgui.CondOnce)
	if !imgui.BeginV("Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	e := ed.Scene.Selected()
	if e == nil {
		imgui.Text("Nothing selected")
		imgui.End()
		return
	}

	if e.ID() != ed.nameOf {
		ed.nameOf, ed.rename = e.ID(), e.Name()
	}
	imgui.InputTextWithHint("##name", "Name", &ed.rename, imgui.InputTextFlagsNone, nil)
	if ed.rename != e.Name() {
		e.SetName(ed.rename)
	}
	active := e.IsActive()
	if imgui.Checkbox("Active", &active) {
		e.SetActive(active)
	}
	imgui.SameLine()
	if imgui.Button("Focus") {
		ed.Scene.FocusOn(e)
	}
	imgui.Separator()

	for i, c := range e.Components() {
		if !imgui.TreeNodeStr(fmt.Sprintf("%s##%d", spaghetti.ComponentName(c), i)) {
			continue
		}
		enabled := c.Enabled()
		if imgui.Checkbox(fmt.Sprintf("Enabled##%d", i), &enabled) {
			c.SetActive(enabled)
		}
		ed.drawComponent(c, i)
		imgui.TreePop()
	}
	imgui.End()
}

func (ed *Editor) drawComponent(c spaghetti.Component, i int) {
	switch c := c.(type) {
	case *spaghetti.TransformComponent:
		if v, ok := inputVec3("Position", i, c.LocalPosition()); ok {
			c.SetLocalPosition(v)
		}
		if v, ok := inputVec3("Rotation", i, c.LocalEulerAngles()); ok {
			c.SetLocalEulerAngles(v)
		}
		if v, ok := inputVec3("Scale", i, c.LocalScale()); ok {
			c.SetLocalScale(v)
		}

	case *spaghetti.MaterialComponent:
		if col, ok := inputColor("Ambient", i, c.Ambient()); ok {
			c.SetAmbient(col)
		}
		if col, ok := inputColor("Diffuse", i, c.Diffuse()); ok {
			c.SetDiffuse(col)
		}
		if col, ok := inputColor("Specular", i, c.Specular()); ok {
			c.SetSpecular(col)
		}
		shininess := float32(c.Shininess())
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("Shininess##%d", i), &shininess) {
			c.SetShininess(float64(shininess))
		}
		checker := c.UseChecker()
		if imgui.Checkbox(fmt.Sprintf("Checker##%d", i), &checker) {
			c.SetUseChecker(checker)
		}
		if p := c.TexturePath(); p != "" {
			imgui.Text("Texture: " + p)
		}

	case *spaghetti.RendererComponent:
		visible := c.IsVisible()
		if imgui.Checkbox(fmt.Sprintf("Visible##%d", i), &visible) {
			c.SetVisible(visible)
		}

	case *spaghetti.MeshComponent:
		imgui.Text(fmt.Sprintf("Vertices: %d", len(c.Vertices())))
		imgui.Text(fmt.Sprintf("Triangles: %d", c.TriangleCount()))
		imgui.Checkbox(fmt.Sprintf("Show normals##%d", i), &c.ShowNormals)

	case *spaghetti.SpinnerComponent:
		speed := float32(c.Speed)
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(fmt.Sprintf("Speed##%d", i), &speed) {
			c.Speed = float64(speed)
		}
		imgui.Checkbox(fmt.Sprintf("Preview##%d", i), &c.Preview)

	case *spaghetti.TweenComponent:
		imgui.Text(fmt.Sprintf("Duration: %.2fs", c.Duration))
		imgui.Text(fmt.Sprintf("Done: %t", c.Done()))
	}
}

// inputVec3 draws three float fields on one line.
func inputVec3(label string, id int, v mgl64.Vec3) (mgl64.Vec3, bool) {
	changed := false
	imgui.Text(label)
	for k, axis := range [3]string{"X", "Y", "Z"} {
		f := float32(v[k])
		imgui.SetNextItemWidth(70)
		if imgui.InputFloat(fmt.Sprintf("%s##%s%d", axis, label, id), &f) {
			v[k] = float64(f)
			changed = true
		}
		if k < 2 {
			imgui.SameLine()
		}
	}
	return v, changed
}

func inputColor(label string, id int, c spaghetti.Color) (spaghetti.Color, bool) {
	col := [3]float32{float32(c.R), float32(c.G), float32(c.B)}
	if imgui.ColorEdit3(fmt.Sprintf("%s##%d", label, id), &col) {
		return spaghetti.Color{R: float64(col[0]), G: float64(col[1]), B: float64(col[2])}, true
	}
	return c, false
}

func (ed *Editor) drawConsole() {
	imgui.SetNextWindowPosV(imgui.NewVec2(280, 500), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(690, 200), imgui.CondOnce)
	if !imgui.BeginV("Console", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	if ed.Console == nil {
		imgui.Text("No console attached")
		imgui.End()
		return
	}
	if imgui.Button("Clear") {
		ed.Console.Clear()
	}
	imgui.Separator()
	for _, entry := range ed.Console.Entries() {
		imgui.Text(entry.String())
	}
	imgui.End()
}

func (ed *Editor) drawTextures() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 500), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(260, 200), imgui.CondOnce)
	if !imgui.BeginV("Textures", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	textures := ed.Textures()
	if textures == nil {
		imgui.Text("No texture cache")
		imgui.End()
		return
	}
	if imgui.Button("Unload unused") {
		n := textures.UnloadUnused()
		spaghetti.Logger().Info("textures unloaded", "count", n)
	}
	const flags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("TextureTable", 3, flags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Key")
		imgui.TableSetupColumn("Size")
		imgui.TableSetupColumn("Refs")
		imgui.TableHeadersRow()
		for _, t := range textures.Textures() {
			w, h := t.Size()
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(t.Key())
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%dx%d", w, h))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", t.Refs()))
		}
		imgui.EndTable()
	}
	imgui.End()
}
