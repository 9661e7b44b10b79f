package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/spaghettimaker/spaghetti"
	"github.com/spaghettimaker/spaghetti/editor"
)

// viewer is the terminal hierarchy browser state.
type viewer struct {
	ed     *editor.Editor
	rows   []editor.HierarchyRow
	cursor int
}

func newViewer(scene *spaghetti.Scene) *viewer {
	v := &viewer{ed: editor.New(scene, nil, nil)}
	v.refresh()
	return v
}

func (v *viewer) refresh() {
	v.rows = v.ed.HierarchyRows()
	v.cursor = max(0, min(v.cursor, len(v.rows)-1))
}

func (v *viewer) current() *spaghetti.Entity {
	if v.cursor < len(v.rows) {
		return v.rows[v.cursor].Entity
	}
	return nil
}

func (v *viewer) move(delta int) {
	v.cursor = max(0, min(v.cursor+delta, len(v.rows)-1))
	v.ed.Scene.Select(v.current())
}

func (v *viewer) toggle() {
	if e := v.current(); e != nil {
		e.SetActive(!e.IsActive())
	}
}

// lines renders one line per row plus a header.
func (v *viewer) lines() []string {
	out := []string{fmt.Sprintf("%s: %d entities", v.ed.Scene.Name(), v.ed.Scene.EntityCount())}
	for i, row := range v.rows {
		e := row.Entity
		marker := "  "
		if i == v.cursor {
			marker = "> "
		}
		check := "[x]"
		if !e.IsActive() {
			check = "[ ]"
		}
		names := make([]string, 0, len(e.Components()))
		for _, c := range e.Components() {
			names = append(names, spaghetti.ComponentName(c))
		}
		out = append(out, fmt.Sprintf("%s%s%s %s  %s", marker, strings.Repeat("  ", row.Depth), check, e.Name(), strings.Join(names, ",")))
	}
	return out
}

func (v *viewer) draw(screen tcell.Screen) {
	screen.Clear()
	w, h := screen.Size()
	for y, line := range v.lines() {
		if y >= h {
			break
		}
		style := tcell.StyleDefault
		if y == v.cursor+1 {
			style = style.Reverse(true)
		}
		x := 0
		for _, r := range line {
			if x >= w {
				break
			}
			screen.SetContent(x, y, r, nil, style)
			x++
		}
	}
	screen.Show()
}

// handle applies one event and reports whether the viewer keeps running.
func (v *viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case nil:
		return false
	}
	return true
}

func (v *viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.move(-1)
	case tcell.KeyDown:
		v.move(1)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'k':
			v.move(-1)
		case 'j':
			v.move(1)
		case ' ':
			v.toggle()
		}
	}
	return true
}
