package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the YAML overlay file in development. Production
// deployments are immutable and never construct one.
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher starts watching the overlay file backing cfg. The returned
// watcher owns a goroutine until Stop is called.
func NewWatcher(cfg *Config, overlayPath string, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save and
	// a watch on the old inode would go silent.
	if err := fsWatcher.Add(filepath.Dir(overlayPath)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		current:   cfg,
		logger:    logger.Named("config"),
		fsWatcher: fsWatcher,
		stopCh:    make(chan struct{}),
	}
	go w.loop(overlayPath)
	return w, nil
}

// OnReload registers a callback invoked with each successfully reloaded
// configuration.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsWatcher.Close()
}

func (w *Watcher) loop(overlayPath string) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != overlayPath || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load()
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous",
					zap.Error(err))
				continue
			}
			w.mu.Lock()
			w.current = cfg
			callbacks := append([]func(*Config){}, w.callbacks...)
			w.mu.Unlock()
			for _, fn := range callbacks {
				fn(cfg)
			}
			w.logger.Info("configuration reloaded",
				zap.String("file", overlayPath))
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
