package editor

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettimaker/spaghetti"
)

// Watcher collects file change notifications for texture directories and
// reloads the affected cached textures on Drain. Notifications arrive on a
// background goroutine; Drain must run on the thread that owns the cache.
type Watcher struct {
	fw       *fsnotify.Watcher
	textures *spaghetti.TextureCache

	mu      sync.Mutex
	pending map[string]struct{}
	done    chan struct{}
}

// NewWatcher starts an fsnotify watcher feeding textures.
func NewWatcher(textures *spaghetti.TextureCache) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("editor: watcher: %w", err)
	}
	w := &Watcher{
		fw:       fw,
		textures: textures,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Add watches dir. Files directly inside it are reported.
func (w *Watcher) Add(dir string) error {
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("editor: watch %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.notify(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			spaghetti.Logger().Warn("texture watcher", "err", err)
		}
	}
}

func (w *Watcher) notify(path string) {
	if !IsImageFile(path) {
		return
	}
	w.mu.Lock()
	w.pending[spaghetti.NormalizeTextureKey(path)] = struct{}{}
	w.mu.Unlock()
}

// Pending returns the number of changed files not yet drained.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Drain reloads every changed file that is in the cache and returns the
// number of textures reloaded. Files the cache does not hold are dropped.
func (w *Watcher) Drain() int {
	w.mu.Lock()
	paths := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	n := 0
	for p := range paths {
		if _, ok := w.textures.Get(p); !ok {
			continue
		}
		if err := w.textures.Reload(p); err != nil {
			spaghetti.Logger().Warn("texture reload failed", "path", p, "err", err)
			continue
		}
		spaghetti.Logger().Info("texture reloaded", "path", p)
		n++
	}
	return n
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
