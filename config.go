package spaghetti

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the engine and editor configuration. Files may be TOML or
// YAML; fields missing from a file keep their DefaultConfig values.
type Config struct {
	Title    string `toml:"title" yaml:"title"`
	Width    int    `toml:"width" yaml:"width"`
	Height   int    `toml:"height" yaml:"height"`
	TPS      int    `toml:"tps" yaml:"tps"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	Debug    bool   `toml:"debug" yaml:"debug"`
	ShowFPS  bool   `toml:"show_fps" yaml:"show_fps"`
	AssetDir string `toml:"asset_dir" yaml:"asset_dir"`

	Render RenderConfig `toml:"render" yaml:"render"`
	Camera CameraConfig `toml:"camera" yaml:"camera"`
}

// RenderConfig mirrors RenderSettings in file form.
type RenderConfig struct {
	Wireframe     bool       `toml:"wireframe" yaml:"wireframe"`
	CullBackFaces bool       `toml:"cull_back_faces" yaml:"cull_back_faces"`
	Lighting      bool       `toml:"lighting" yaml:"lighting"`
	ShowAxes      bool       `toml:"show_axes" yaml:"show_axes"`
	ClearColor    [3]float64 `toml:"clear_color" yaml:"clear_color"`
	LightDir      [3]float64 `toml:"light_dir" yaml:"light_dir"`
}

// CameraConfig holds the main camera's initial state.
type CameraConfig struct {
	FOV      float64    `toml:"fov" yaml:"fov"`
	Near     float64    `toml:"near" yaml:"near"`
	Far      float64    `toml:"far" yaml:"far"`
	Position [3]float64 `toml:"position" yaml:"position"`
	Target   [3]float64 `toml:"target" yaml:"target"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	rs := DefaultRenderSettings()
	cam := NewCamera()
	return Config{
		Title:    "Spaghetti",
		Width:    1280,
		Height:   720,
		TPS:      defaultTickRate,
		LogLevel: "info",
		ShowFPS:  true,
		AssetDir: "assets",
		Render: RenderConfig{
			Wireframe:     rs.Wireframe,
			CullBackFaces: rs.CullBackFaces,
			Lighting:      rs.Lighting,
			ShowAxes:      rs.ShowAxes,
			ClearColor:    [3]float64{rs.ClearColor.R, rs.ClearColor.G, rs.ClearColor.B},
			LightDir:      rs.LightDir,
		},
		Camera: CameraConfig{
			FOV:      cam.FOV,
			Near:     cam.Near,
			Far:      cam.Far,
			Position: cam.Position,
			Target:   cam.Target,
		},
	}
}

// LoadConfig reads path over DefaultConfig. The format follows the file
// extension: .toml, .yaml or .yml.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data over DefaultConfig. format is "toml", "yaml" or
// "yml", with or without a leading dot. Unknown keys are rejected.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return DefaultConfig(), fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration values the engine cannot run with.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("invalid tps %d", c.TPS)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("invalid camera clip range %v..%v", c.Camera.Near, c.Camera.Far)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// RenderSettings converts the render section.
func (c Config) RenderSettings() RenderSettings {
	r := c.Render
	dir := mgl64.Vec3(r.LightDir)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	} else {
		dir = DefaultRenderSettings().LightDir
	}
	return RenderSettings{
		Wireframe:     r.Wireframe,
		CullBackFaces: r.CullBackFaces,
		Lighting:      r.Lighting,
		ShowAxes:      r.ShowAxes,
		ClearColor:    Color{r.ClearColor[0], r.ClearColor[1], r.ClearColor[2]}.Clamp(),
		LightDir:      dir,
	}
}

// ApplyCamera copies the camera section onto cam and sets its aspect from
// the window size.
func (c Config) ApplyCamera(cam *Camera) {
	cam.FOV = c.Camera.FOV
	cam.Near = c.Camera.Near
	cam.Far = c.Camera.Far
	cam.Position = c.Camera.Position
	cam.Target = c.Camera.Target
	cam.SetViewportSize(c.Width, c.Height)
}
