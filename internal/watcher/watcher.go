// Package watcher turns raw fsnotify events into debounced change events.
// Editors save in bursts (delete+create, several writes); every path gets
// its own coalescing timer so one noisy file never delays another.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jarstone/edge2html/internal/elog"
)

// Kind classifies a change event.
type Kind int

const (
	Created Kind = iota
	Modified
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Change is one debounced file-system event: the last kind observed for the
// path within the debounce window.
type Change struct {
	Kind Kind
	Path string
}

type pending struct {
	kind  Kind
	timer *time.Timer
}

type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	out      chan Change

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
}

// New watches root and every directory below it. Directories created while
// watching are added on the fly.
func New(root string, debounce time.Duration) (*Watcher, error) {
	wch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       wch,
		debounce: debounce,
		out:      make(chan Change, 100),
		pending:  make(map[string]*pending),
	}

	go w.loop()
	w.addTree(root)

	return w, nil
}

// Changes delivers debounced events. The channel is never closed; stop
// consuming after Close.
func (w *Watcher) Changes() <-chan Change {
	return w.out
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			elog.Warn("msg", "Watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	kind, ok := mapOp(event.Op)
	if !ok {
		return
	}

	if kind == Created {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if p, ok := w.pending[event.Name]; ok {
		p.kind = kind
		p.timer.Reset(w.debounce)
		return
	}

	p := &pending{kind: kind}
	p.timer = time.AfterFunc(w.debounce, func() { w.flush(event.Name) })
	w.pending[event.Name] = p
}

func (w *Watcher) flush(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	kind := p.kind
	w.mu.Unlock()

	w.out <- Change{Kind: kind, Path: path}
}

// mapOp reduces fsnotify flags to a Kind. Renames leave the watched tree, so
// they count as deletions; chmod is noise.
func mapOp(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Deleted, true
	}
	return 0, false
}

func (w *Watcher) addTree(root string) {
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			elog.Warn("msg", "Watch walk failed", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			elog.Warn("msg", "Watch add failed", "path", path, "err", err)
		}
		return nil
	})
}
