package components

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
)

// FileWatch requires a file to exist. After initialization it watches the
// file's directory: removing or renaming the file degrades the component and
// creating it again recovers it.
type FileWatch struct {
	*lifecycle.Controller
	path   string
	logger log.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewFileWatch creates a component that requires path to exist on Initialize and
// then degrades while the file is missing. A nil logger discards output.
func NewFileWatch(name, path string, logger log.Logger, opts ...lifecycle.Option) *FileWatch {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	f := &FileWatch{path: filepath.Clean(path), logger: logger}
	opts = append(opts,
		lifecycle.WithInitHook(f.init),
		lifecycle.WithShutdownHook(f.shutdown),
	)
	f.Controller = lifecycle.New(name, opts...)
	return f
}

// Path returns the watched file.
func (f *FileWatch) Path() string {
	return f.path
}

func (f *FileWatch) init(context.Context) error {
	if _, err := os.Stat(f.path); err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	f.mu.Lock()
	f.watcher = w
	f.mu.Unlock()

	f.wg.Add(1)
	go f.watchLoop(w)
	return nil
}

func (f *FileWatch) shutdown(context.Context) error {
	f.mu.Lock()
	w := f.watcher
	f.watcher = nil
	f.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	f.wg.Wait()
	return err
}

func (f *FileWatch) watchLoop(w *fsnotify.Watcher) {
	defer f.wg.Done()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			f.handle(event)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Warn("file watcher error", log.String("component", f.Name()), log.Err(err))
		}
	}
}

func (f *FileWatch) handle(event fsnotify.Event) {
	var err error
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		err = f.Degrade(fmt.Sprintf("%s is missing", f.path))
	case event.Has(fsnotify.Create):
		err = f.Recover()
	default:
		return
	}
	if err != nil {
		f.logger.Debug("file event ignored",
			log.String("component", f.Name()),
			log.String("op", event.Op.String()),
			log.Err(err),
		)
	}
}
