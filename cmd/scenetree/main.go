// Command scenetree imports a model without opening a window and browses
// the resulting entity tree in the terminal.
//
//	scenetree [-log file] model.glb
//
// Up/Down (or k/j) move the cursor, space toggles the entity's active flag,
// q or Escape quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/spaghettimaker/spaghetti"
	"github.com/spaghettimaker/spaghetti/gltf"
)

func main() {
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scenetree [-log file] model.glb")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "scenetree:", err)
		os.Exit(1)
	}
}

func run(modelPath, logPath string) error {
	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	spaghetti.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})))

	scene := spaghetti.NewScene("scenetree")
	defer scene.Close()
	if _, err := scene.ImportModel(modelPath, gltf.Importer{}, nil); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := newViewer(scene)
	for {
		v.draw(screen)
		if !v.handle(screen.PollEvent()) {
			return nil
		}
	}
}
