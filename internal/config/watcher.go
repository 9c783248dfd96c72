package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the configuration file so recommendation tunables can be
// changed without restarting the session.
type Watcher struct {
	path     string
	callback func(*Config)
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(path string, callback func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		callback: callback,
		stop:     make(chan struct{}),
	}
}

// Start begins watching the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory to handle atomic saves (where the file is replaced).
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()

		slog.Info("starting config watcher", "path", w.path)

		var timer *time.Timer
		const debounce = 100 * time.Millisecond

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}

				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						w.reload()
					})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Watcher) reload() {
	slog.Info("config file change detected, reloading", "path", w.path)
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("failed to reload configuration", "error", err)
		return
	}

	if w.callback != nil {
		w.callback(cfg)
	}
}
