package spaghetti

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Overlay draws on top of the rendered scene, typically an editor UI.
type Overlay interface {
	Update(dt float64)
	Draw(screen *ebiten.Image)
	Layout(width, height int)
}

// DropHandler receives the OS paths of files dropped onto the window.
type DropHandler func(paths []string)

// RunConfig configures Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	TPS     int
	ShowFPS bool

	// OnUpdate runs every tick before the scene updates. A non-nil error
	// stops the game; ebiten.Termination ends it cleanly.
	OnUpdate func(g *Game) error
	// Overlay, if set, is updated after the scene and drawn over it.
	Overlay Overlay
	// OnDrop receives dropped files after they are copied into DropDir.
	OnDrop  DropHandler
	DropDir string
}

// RunConfigFrom builds a RunConfig from the window section of cfg.
func RunConfigFrom(cfg Config) RunConfig {
	return RunConfig{
		Title:   cfg.Title,
		Width:   cfg.Width,
		Height:  cfg.Height,
		TPS:     cfg.TPS,
		ShowFPS: cfg.ShowFPS,
		DropDir: filepath.Join(cfg.AssetDir, "dropped"),
	}
}

// Game implements ebiten.Game for one scene.
type Game struct {
	scene   *Scene
	backend *EbitenBackend
	cfg     RunConfig
	dt      float64

	fps       *ebiten.Image
	sinceFPS  float64
	shotQueue []string
}

// NewGame wires scene to b. The scene's render context must draw through
// b; when the scene has no context one is created.
func NewGame(scene *Scene, b *EbitenBackend, cfg RunConfig) *Game {
	if cfg.TPS <= 0 {
		cfg.TPS = defaultTickRate
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if scene.RenderContext() == nil {
		scene.SetRenderContext(NewRenderContext(b, nil))
	}
	g := &Game{scene: scene, backend: b, cfg: cfg, dt: 1 / float64(cfg.TPS)}
	scene.SetTimeStep(g.dt)
	return g
}

// Run opens a window and runs scene until the window closes or OnUpdate
// returns an error. If the scene has no render context, Run creates one on
// an EbitenBackend and closes it on return.
func Run(scene *Scene, cfg RunConfig) error {
	var b *EbitenBackend
	owned := false
	if ctx := scene.RenderContext(); ctx != nil {
		eb, ok := ctx.Backend.(*EbitenBackend)
		if !ok {
			return fmt.Errorf("run: render context backend is %T, want *EbitenBackend", ctx.Backend)
		}
		b = eb
	} else {
		b = NewEbitenBackend()
		owned = true
	}
	g := NewGame(scene, b, cfg)
	if owned {
		defer scene.RenderContext().Close()
	}

	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.cfg.TPS)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// Scene returns the game's scene.
func (g *Game) Scene() *Scene { return g.scene }

// Backend returns the backend the game draws through.
func (g *Game) Backend() *EbitenBackend { return g.backend }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.cfg.OnUpdate != nil {
		if err := g.cfg.OnUpdate(g); err != nil {
			return err
		}
	}
	if g.cfg.OnDrop != nil {
		if dropped := ebiten.DroppedFiles(); dropped != nil {
			paths, err := stageDroppedFiles(dropped, g.cfg.DropDir)
			if err != nil {
				logger().Error("dropped files", "err", err)
			}
			if len(paths) > 0 {
				g.cfg.OnDrop(paths)
			}
		}
	}

	g.scene.EditorUpdate(g.dt)
	g.scene.Update()
	if g.cfg.Overlay != nil {
		g.cfg.Overlay.Update(g.dt)
	}
	g.sinceFPS += g.dt
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.backend.SetTarget(screen)
	g.scene.Render()
	if g.cfg.Overlay != nil {
		g.cfg.Overlay.Draw(screen)
	}
	if g.cfg.ShowFPS {
		g.drawFPS(screen)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The camera aspect follows the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.scene.Camera().SetViewportSize(outsideWidth, outsideHeight)
	if g.cfg.Overlay != nil {
		g.cfg.Overlay.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// drawFPS redraws the counter image about twice a second and blits it in
// the top-left corner.
func (g *Game) drawFPS(screen *ebiten.Image) {
	if g.fps == nil {
		g.fps = ebiten.NewImage(160, 48)
		g.sinceFPS = 1
	}
	if g.sinceFPS >= 0.5 {
		g.sinceFPS = 0
		g.fps.Clear()
		g.fps.Fill(color.RGBA{0, 0, 0, 128})
		st := g.backend.Stats()
		ebitenutil.DebugPrint(g.fps, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nTris: %d", ebiten.ActualFPS(), ebiten.ActualTPS(), st.Triangles-st.Culled))
	}
	screen.DrawImage(g.fps, nil)
}

// Screenshot queues a PNG capture of the next drawn frame at path. A
// directory path or one without an extension gets a timestamped file name.
func (g *Game) Screenshot(path string) {
	g.shotQueue = append(g.shotQueue, path)
}

func (g *Game) flushScreenshots(screen *ebiten.Image) {
	if len(g.shotQueue) == 0 {
		return
	}
	img := readNRGBA(screen)
	stamp := time.Now().Format("20060102_150405")
	for _, p := range g.shotQueue {
		if filepath.Ext(p) == "" {
			p = filepath.Join(p, "screenshot_"+stamp+".png")
		}
		if err := writePNG(p, img); err != nil {
			logger().Error("screenshot", "err", err)
			continue
		}
		logger().Info("screenshot saved", "path", p)
	}
	g.shotQueue = g.shotQueue[:0]
}

// readNRGBA reads img back and converts premultiplied alpha to straight
// alpha.
func readNRGBA(img *ebiten.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.ReadPixels(out.Pix)
	unpremultiply(out.Pix)
	return out
}

func unpremultiply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := int(pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		pix[i] = uint8(min(int(pix[i])*255/a, 255))
		pix[i+1] = uint8(min(int(pix[i+1])*255/a, 255))
		pix[i+2] = uint8(min(int(pix[i+2])*255/a, 255))
	}
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// stageDroppedFiles copies every regular file of fsys into dir and returns
// the copied paths in walk order. Dropped files arrive as a virtual file
// system, while importers and the texture cache open OS paths.
func stageDroppedFiles(fsys fs.FS, dir string) ([]string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	var paths []string
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		dst := filepath.Join(dir, filepath.FromSlash(path.Clean(name)))
		if err := copyFile(fsys, name, dst); err != nil {
			return err
		}
		paths = append(paths, dst)
		return nil
	})
	return paths, err
}

func copyFile(fsys fs.FS, name, dst string) error {
	if strings.Contains(name, "..") {
		return fmt.Errorf("dropped file %q escapes staging dir", name)
	}
	src, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return out.Close()
}
