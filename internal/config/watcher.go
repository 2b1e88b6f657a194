package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/arcdbg/internal/logging"
)

// Observer receives a freshly loaded configuration.
type Observer func(cfg *Config)

// Watcher reloads a configuration file whenever it changes.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	observer Observer
	log      *logging.Logger

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher starts watching path. The parent directory is watched so
// editors that replace the file on save are handled.
func NewWatcher(path string, observer Observer, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Nop
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		fsw:      fsw,
		observer: observer,
		log:      log.WithComponent("config"),
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch %s: %v", w.path, err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		// Partially written files fail to parse; the next write retries.
		w.log.Warn("reload %s: %v", w.path, err)
		return
	}
	w.log.Info("reloaded %s", w.path)
	if w.observer != nil {
		w.observer(cfg)
	}
}
