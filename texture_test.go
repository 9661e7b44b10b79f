package spaghetti

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(files map[string]Pixels) (*TextureCache, *recordingBackend, *memLoader) {
	rb := newRecordingBackend()
	l := &memLoader{files: files}
	return NewTextureCache(rb, l), rb, l
}

func TestCheckerboard(t *testing.T) {
	px := Checkerboard(4, 2)
	assert.Equal(t, 4, px.Width)
	assert.Equal(t, 4, px.Height)
	assert.Equal(t, 4, px.Channels)
	require.Len(t, px.Data, 64)

	at := func(x, y int) byte { return px.Data[(y*4+x)*4] }
	assert.Equal(t, byte(255), at(0, 0))
	assert.Equal(t, byte(255), at(1, 1))
	assert.Equal(t, byte(128), at(2, 0))
	assert.Equal(t, byte(128), at(0, 2))
	assert.Equal(t, byte(255), at(3, 3))
	assert.Equal(t, byte(255), px.Data[3], "opaque")
}

func TestDefaultTexture(t *testing.T) {
	c, rb, _ := newCache(nil)
	def := c.Default()
	require.NotNil(t, def)
	assert.True(t, def.IsDefault())
	assert.Equal(t, DefaultTextureKey, def.Key())
	w, h := def.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)
	assert.NotZero(t, def.ID())
	assert.Len(t, rb.textures, 1)
	assert.Equal(t, 1, c.Len())
}

func TestLoadCachesByNormalizedKey(t *testing.T) {
	c, _, l := newCache(map[string]Pixels{
		"assets/wood.png":      solidPixels(2, 2),
		"assets/./wood.png":    solidPixels(2, 2),
		"assets/x/../wood.png": solidPixels(2, 2),
	})
	a, err := c.Load("assets/wood.png")
	require.NoError(t, err)
	b, err := c.Load("assets/./wood.png")
	require.NoError(t, err)
	d, err := c.Load("assets/x/../wood.png")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, d)
	assert.Equal(t, 1, l.loads)
	assert.Equal(t, "assets/wood.png", a.Key())
	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("assets/wood.png")
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestLoadFailureFallsBack(t *testing.T) {
	c, _, _ := newCache(map[string]Pixels{"empty.png": {}})
	tex, err := c.Load("missing.png")
	assert.True(t, errors.Is(err, ErrTextureLoad))
	assert.Same(t, c.Default(), tex)

	tex, err = c.Load("empty.png")
	assert.True(t, errors.Is(err, ErrTextureLoad))
	assert.Same(t, c.Default(), tex)
	assert.Equal(t, 1, c.Len(), "failed loads are not cached")
}

func TestLoadRejectsShortPixelData(t *testing.T) {
	c, rb, l := newCache(map[string]Pixels{
		"short.png": {Width: 4, Height: 4, Channels: 4, Data: make([]byte, 8)},
		"odd.png":   {Width: 1, Height: 1, Channels: 5, Data: make([]byte, 5)},
		"ok.png":    solidPixels(1, 1),
	})
	created := len(rb.textures)

	for _, path := range []string{"short.png", "odd.png"} {
		tex, err := c.Load(path)
		assert.True(t, errors.Is(err, ErrTextureLoad), path)
		assert.Same(t, c.Default(), tex, path)
	}
	assert.Len(t, rb.textures, created, "invalid pixels never reach the backend")

	_, err := c.Load("ok.png")
	require.NoError(t, err)
	l.files["ok.png"] = Pixels{Width: 2, Height: 2, Channels: 3, Data: make([]byte, 3)}
	assert.True(t, errors.Is(c.Reload("ok.png"), ErrTextureLoad))
	tex, _ := c.Get("ok.png")
	w, _ := tex.Size()
	assert.Equal(t, 1, w, "failed reload keeps the old pixels")
}

func TestUnloadRespectsReferences(t *testing.T) {
	c, rb, _ := newCache(map[string]Pixels{"a.png": solidPixels(1, 1)})
	tex, err := c.Load("a.png")
	require.NoError(t, err)

	c.Acquire(tex)
	assert.False(t, c.Unload("a.png"))
	assert.Equal(t, 1, tex.Refs())

	c.Release(tex)
	c.Release(tex)
	assert.Equal(t, 0, tex.Refs())
	assert.True(t, c.Unload("a.png"))
	assert.Zero(t, tex.ID())
	assert.Len(t, rb.textures, 1)

	assert.False(t, c.Unload("a.png"))
	assert.False(t, c.Unload(DefaultTextureKey))
}

func TestUnloadUnused(t *testing.T) {
	c, _, _ := newCache(map[string]Pixels{
		"a.png": solidPixels(1, 1),
		"b.png": solidPixels(1, 1),
		"c.png": solidPixels(1, 1),
	})
	for _, p := range []string{"a.png", "b.png", "c.png"} {
		_, err := c.Load(p)
		require.NoError(t, err)
	}
	b, _ := c.Get("b.png")
	c.Acquire(b)

	assert.Equal(t, 2, c.UnloadUnused())
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b.png")
	assert.True(t, ok)
	assert.NotNil(t, c.Default())
}

func TestReloadKeepsIdentity(t *testing.T) {
	files := map[string]Pixels{"a.png": solidPixels(1, 1)}
	c, rb, _ := newCache(files)
	tex, err := c.Load("a.png")
	require.NoError(t, err)
	oldID := tex.ID()

	files["a.png"] = solidPixels(3, 2)
	require.NoError(t, c.Reload("a.png"))
	w, h := tex.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.NotEqual(t, oldID, tex.ID())
	assert.False(t, rb.textures[oldID])
	assert.True(t, rb.textures[tex.ID()])

	delete(files, "a.png")
	assert.True(t, errors.Is(c.Reload("a.png"), ErrTextureLoad))
	assert.NoError(t, c.Reload("never-loaded.png"))
}

func TestTexturesSortedAndClose(t *testing.T) {
	c, rb, _ := newCache(map[string]Pixels{
		"b.png": solidPixels(1, 1),
		"a.png": solidPixels(1, 1),
	})
	c.Load("b.png")
	c.Load("a.png")

	var keys []string
	for _, tex := range c.Textures() {
		keys = append(keys, tex.Key())
	}
	assert.Equal(t, []string{DefaultTextureKey, "a.png", "b.png"}, keys)

	c.Close()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, rb.textures)
}

func TestHeadlessCache(t *testing.T) {
	c := NewTextureCache(nil, &memLoader{files: map[string]Pixels{"a.png": solidPixels(1, 1)}})
	tex, err := c.Load("a.png")
	require.NoError(t, err)
	assert.Zero(t, tex.ID())
	assert.True(t, c.Unload("a.png"))
}

func TestPixelsRGBA(t *testing.T) {
	gray := Pixels{Width: 1, Height: 1, Channels: 1, Data: []byte{7}}
	assert.Equal(t, []byte{7, 7, 7, 255}, gray.RGBA().Pix)

	ga := Pixels{Width: 1, Height: 1, Channels: 2, Data: []byte{7, 9}}
	assert.Equal(t, []byte{7, 7, 7, 9}, ga.RGBA().Pix)

	rgb := Pixels{Width: 1, Height: 1, Channels: 3, Data: []byte{1, 2, 3}}
	assert.Equal(t, []byte{1, 2, 3, 255}, rgb.RGBA().Pix)
}

func TestImageLoader(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	px, err := ImageLoader{}.LoadPixels(path)
	require.NoError(t, err)
	assert.Equal(t, 3, px.Width)
	assert.Equal(t, 2, px.Height)
	assert.Equal(t, 4, px.Channels)
	i := (1*3 + 2) * 4
	assert.Equal(t, []byte{10, 20, 30, 255}, px.Data[i:i+4])

	_, err = ImageLoader{}.LoadPixels(filepath.Join(t.TempDir(), "none.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = ImageLoader{}.LoadPixels(bad)
	assert.Error(t, err)
}
