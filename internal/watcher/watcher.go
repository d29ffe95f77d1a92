// Package watcher flags external modification of the file an editing session
// has loaded, so the session can warn before a save clobbers someone else's
// change. It watches the file's directory rather than the file itself:
// editors that write via rename would otherwise silently drop the watch.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes one file for writes, renames and removals.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	log     *zap.Logger
	changed chan struct{}

	mu       sync.Mutex
	modified bool
	closed   bool
	done     chan struct{}
}

// Watch starts observing a file. Close must be called to release the
// underlying watcher and its goroutine.
func Watch(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		log:     log,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("watched file changed", zap.String("path", w.path), zap.String("op", ev.Op.String()))
			w.mu.Lock()
			w.modified = true
			w.mu.Unlock()
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

// Changed delivers at most one pending notification; it never blocks senders.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Modified reports whether the file changed on disk since Watch or the last
// Reset.
func (w *Watcher) Modified() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modified
}

// Reset clears the modified flag, typically right after the session itself
// wrote the file.
func (w *Watcher) Reset() {
	w.mu.Lock()
	w.modified = false
	w.mu.Unlock()
	select {
	case <-w.changed:
	default:
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}
