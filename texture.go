package spaghetti

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultTextureKey is the cache key of the checkerboard fallback texture.
const DefaultTextureKey = "__default"

const (
	checkerSize = 64
	checkerCell = 8
)

// Pixels is decoded image data, row major, Channels bytes per pixel.
type Pixels struct {
	Width    int
	Height   int
	Channels int
	Data     []byte
}

// Validate reports whether p describes a non-empty image whose Data holds
// Width*Height*Channels bytes with 1 to 4 channels.
func (p Pixels) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("empty image %dx%d", p.Width, p.Height)
	}
	if p.Channels < 1 || p.Channels > 4 {
		return fmt.Errorf("unsupported channel count %d", p.Channels)
	}
	if want := p.Width * p.Height * p.Channels; len(p.Data) < want {
		return fmt.Errorf("pixel data is %d bytes, want %d", len(p.Data), want)
	}
	return nil
}

// RGBA expands the pixel data into an RGBA image. One channel is gray, two
// are gray+alpha, three are RGB.
func (p Pixels) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	n := p.Width * p.Height
	for i := 0; i < n; i++ {
		src := p.Data[i*p.Channels:]
		dst := img.Pix[i*4 : i*4+4]
		switch p.Channels {
		case 1:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 255
		case 2:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		case 3:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		default:
			copy(dst, src[:4])
		}
	}
	return img
}

// Checkerboard generates an opaque size x size texture of cell-sized
// squares alternating between white and mid gray.
func Checkerboard(size, cell int) Pixels {
	if cell <= 0 {
		cell = 1
	}
	data := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(128)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			i := (y*size + x) * 4
			data[i], data[i+1], data[i+2], data[i+3] = v, v, v, 255
		}
	}
	return Pixels{Width: size, Height: size, Channels: 4, Data: data}
}

// TextureLoader decodes an image file.
type TextureLoader interface {
	LoadPixels(path string) (Pixels, error)
}

// ImageLoader decodes PNG, JPEG, GIF, BMP, TIFF and WebP files from disk
// into 4-channel pixels.
type ImageLoader struct{}

// LoadPixels implements TextureLoader.
func (ImageLoader) LoadPixels(path string) (Pixels, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pixels{}, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return Pixels{}, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Pixels{Width: b.Dx(), Height: b.Dy(), Channels: 4, Data: rgba.Pix}, nil
}

// Texture is a cached, reference-counted image uploaded to the backend.
type Texture struct {
	key    string
	width  int
	height int
	id     TextureID
	refs   int
	pixels Pixels
	cache  *TextureCache
}

// Key returns the normalized path the texture is cached under.
func (t *Texture) Key() string { return t.key }

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (w, h int) { return t.width, t.height }

// ID returns the backend handle, zero when the cache has no backend.
func (t *Texture) ID() TextureID { return t.id }

// Refs returns the number of materials holding the texture.
func (t *Texture) Refs() int { return t.refs }

// Pixels returns the decoded pixel data.
func (t *Texture) Pixels() Pixels { return t.pixels }

// IsDefault reports whether t is its cache's checkerboard.
func (t *Texture) IsDefault() bool { return t.cache != nil && t.cache.def == t }

// TextureCache maps normalized file paths to loaded textures and owns the
// checkerboard fallback. Textures are shared between materials and counted
// with Acquire and Release.
type TextureCache struct {
	backend  Backend
	loader   TextureLoader
	textures map[string]*Texture
	def      *Texture
}

// NewTextureCache creates a cache and uploads the checkerboard through b.
// b may be nil for headless use.
func NewTextureCache(b Backend, loader TextureLoader) *TextureCache {
	c := &TextureCache{
		backend:  b,
		loader:   loader,
		textures: make(map[string]*Texture),
	}
	c.def = c.newTexture(DefaultTextureKey, Checkerboard(checkerSize, checkerCell))
	c.textures[DefaultTextureKey] = c.def
	return c
}

// NormalizeTextureKey returns the cache key for path.
func NormalizeTextureKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func (c *TextureCache) newTexture(key string, px Pixels) *Texture {
	t := &Texture{key: key, width: px.Width, height: px.Height, pixels: px, cache: c}
	if c.backend != nil {
		t.id = c.backend.CreateTexture(px)
	}
	return t
}

// Default returns the checkerboard texture.
func (c *TextureCache) Default() *Texture { return c.def }

// Load returns the texture for path, decoding and uploading it on first use.
// When decoding fails the checkerboard is returned together with an error
// wrapping ErrTextureLoad; callers may ignore the error and use the result.
func (c *TextureCache) Load(path string) (*Texture, error) {
	key := NormalizeTextureKey(path)
	if t, ok := c.textures[key]; ok {
		return t, nil
	}
	px, err := c.loader.LoadPixels(path)
	if err == nil {
		err = px.Validate()
	}
	if err != nil {
		logger().Warn("texture load failed, using checkerboard", "path", path, "err", err)
		return c.def, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}
	t := c.newTexture(key, px)
	c.textures[key] = t
	logger().Debug("texture loaded", "path", key, "width", px.Width, "height", px.Height)
	return t, nil
}

// Get returns the cached texture for path without loading.
func (c *TextureCache) Get(path string) (*Texture, bool) {
	t, ok := c.textures[NormalizeTextureKey(path)]
	return t, ok
}

// Acquire records a new holder of t.
func (c *TextureCache) Acquire(t *Texture) {
	if t != nil {
		t.refs++
	}
}

// Release drops a holder of t.
func (c *TextureCache) Release(t *Texture) {
	if t != nil && t.refs > 0 {
		t.refs--
	}
}

// Unload removes the texture for path and destroys its backend handle.
// The default texture and textures still held by a material are kept;
// Unload returns false for them.
func (c *TextureCache) Unload(path string) bool {
	key := NormalizeTextureKey(path)
	t, ok := c.textures[key]
	if !ok || t == c.def || t.refs > 0 {
		return false
	}
	c.destroy(t)
	delete(c.textures, key)
	return true
}

// UnloadUnused removes every texture no material holds, except the
// default. Returns the number removed.
func (c *TextureCache) UnloadUnused() int {
	n := 0
	for key, t := range c.textures {
		if t == c.def || t.refs > 0 {
			continue
		}
		c.destroy(t)
		delete(c.textures, key)
		n++
	}
	return n
}

// Reload decodes path again and replaces the pixels of the cached texture
// in place, so materials holding it pick up the change. Uncached paths are
// ignored.
func (c *TextureCache) Reload(path string) error {
	t, ok := c.Get(path)
	if !ok || t == c.def {
		return nil
	}
	px, err := c.loader.LoadPixels(path)
	if err == nil {
		err = px.Validate()
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}
	c.destroy(t)
	t.width, t.height, t.pixels = px.Width, px.Height, px
	if c.backend != nil {
		t.id = c.backend.CreateTexture(px)
	}
	return nil
}

func (c *TextureCache) destroy(t *Texture) {
	if c.backend != nil && t.id != 0 {
		c.backend.DestroyTexture(t.id)
	}
	t.id = 0
}

// Len returns the number of cached textures including the default.
func (c *TextureCache) Len() int { return len(c.textures) }

// Textures returns the cached textures sorted by key.
func (c *TextureCache) Textures() []*Texture {
	out := make([]*Texture, 0, len(c.textures))
	for _, t := range c.textures {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Close destroys every texture, the default included.
func (c *TextureCache) Close() {
	for key, t := range c.textures {
		c.destroy(t)
		delete(c.textures, key)
	}
}
