package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the config file and hands validated snapshots to an
// OnChange callback. Invalid or unparseable files are logged and skipped;
// the previous config stays live.
type Watcher struct {
	path     string
	logger   *zap.Logger
	onChange func(*Config)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher builds a watcher over an explicit config file path.
func NewWatcher(path string, logger *zap.Logger, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save
	// and a file watch dies with the old inode.
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		logger:   logger.With(zap.String("component", "config-watcher")),
		onChange: onChange,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in the calling goroutine. Run it under safego.Go.
func (w *Watcher) Start() {
	w.wg.Add(1)
	defer w.wg.Done()

	w.logger.Info("Config watcher started", zap.String("path", w.path))
	for {
		select {
		case <-w.stopCh:
			w.logger.Info("Config watcher stopped")
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}

// Stop shuts the watcher down and waits for Start to return.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Config reload failed, keeping previous config",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("Config reloaded",
		zap.String("path", w.path),
		zap.String("generator", cfg.Response.Generator),
		zap.Int("target_tokens", cfg.Response.TargetTokens),
	)
	w.onChange(cfg)
}
