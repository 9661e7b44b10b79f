// Command spaghetti is the scene editor. It opens a window with the
// hierarchy, inspector, console and texture panels over the rendered scene.
//
// Drop .gltf/.glb files onto the window to import them, or image files to
// texture the selected entity. Right-drag orbits the camera, the wheel
// zooms, F focuses the selection and F12 saves a screenshot.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/pkg/profile"

	"github.com/spaghettimaker/spaghetti"
	"github.com/spaghettimaker/spaghetti/editor"
	"github.com/spaghettimaker/spaghetti/gltf"
)

const (
	orbitSpeed = 0.01 // radians per pixel
	zoomStep   = 0.9
)

func main() {
	var (
		configPath  = flag.String("config", "", "config file (.toml, .yaml or .yml)")
		modelPath   = flag.String("model", "", "model to import at startup")
		profileMode = flag.String("profile", "", "write a cpu or mem profile to the working directory")
		debug       = flag.Bool("debug", false, "enable scene debug checks and debug logging")
	)
	flag.Parse()

	if err := run(*configPath, *modelPath, *profileMode, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "spaghetti:", err)
		os.Exit(1)
	}
}

func run(configPath, modelPath, profileMode string, debug bool) error {
	cfg := spaghetti.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = spaghetti.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	console := editor.NewConsoleHandler(editor.DefaultConsoleCapacity, level)
	logger := slog.New(editor.Tee(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		console,
	))
	slog.SetDefault(logger)
	spaghetti.SetLogger(logger)

	switch profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", profileMode)
	}

	backend := spaghetti.NewEbitenBackend()
	ctx := spaghetti.NewRenderContext(backend, nil)
	ctx.Settings = cfg.RenderSettings()
	defer ctx.Close()

	scene := spaghetti.NewScene("Main")
	defer scene.Close()
	scene.SetRenderContext(ctx)
	scene.SetDebugMode(cfg.Debug)
	cfg.ApplyCamera(scene.Camera())
	populate(scene)

	ed := editor.New(scene, gltf.Importer{ExtractDir: filepath.Join(cfg.AssetDir, "extracted")}, console)
	if w, err := watchAssets(ctx.Textures, cfg.AssetDir); err != nil {
		logger.Warn("asset watcher disabled", "dir", cfg.AssetDir, "err", err)
	} else {
		ed.Watcher = w
		defer w.Close()
	}
	if modelPath != "" {
		if err := ed.HandleDrop(modelPath); err != nil {
			logger.Error("startup import failed", "path", modelPath, "err", err)
		}
	}

	overlay := editor.NewOverlay(ed, cfg.Title, cfg.Width, cfg.Height)
	rc := spaghetti.RunConfigFrom(cfg)
	rc.Overlay = overlay
	rc.OnDrop = ed.HandleDrops
	rc.OnUpdate = func(g *spaghetti.Game) error {
		handleInput(g, overlay)
		return nil
	}
	logger.Info("editor starting", "width", cfg.Width, "height", cfg.Height, "assets", cfg.AssetDir)
	return spaghetti.Run(scene, rc)
}

// populate adds the default ground plane and cube.
func populate(scene *spaghetti.Scene) {
	ground := scene.CreatePrimitive(spaghetti.PrimitivePlane, "Ground", nil)
	ground.Transform().SetLocalPosition(mgl64.Vec3{0, -spaghetti.DefaultCubeSize / 2, 0})
	ground.Transform().SetLocalScale(mgl64.Vec3{2, 1, 2})

	cube := scene.CreatePrimitive(spaghetti.PrimitiveCube, "", nil)
	spinner := spaghetti.AddComponent(cube, spaghetti.NewSpinner(mgl64.Vec3{0, 1, 0}, 1))
	spinner.Preview = true
	scene.Select(cube)
}

func watchAssets(textures *spaghetti.TextureCache, dir string) (*editor.Watcher, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, errors.New("not a directory")
	}
	w, err := editor.NewWatcher(textures)
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

var lastCursor [2]int

// handleInput drives the camera from the mouse unless ImGui owns it.
func handleInput(g *spaghetti.Game, overlay *editor.Overlay) {
	x, y := ebiten.CursorPosition()
	dx, dy := x-lastCursor[0], y-lastCursor[1]
	lastCursor = [2]int{x, y}

	cam := g.Scene().Camera()
	if !overlay.WantsMouse() {
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
			cam.Orbit(-float64(dx)*orbitSpeed, -float64(dy)*orbitSpeed)
		}
		if _, wy := ebiten.Wheel(); wy > 0 {
			cam.Zoom(zoomStep)
		} else if wy < 0 {
			cam.Zoom(1 / zoomStep)
		}
	}
	if overlay.WantsKeyboard() {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.Scene().FocusOn(g.Scene().Selected())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.Screenshot("screenshots")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) {
		g.Scene().DestroyEntity(g.Scene().Selected())
	}
}
