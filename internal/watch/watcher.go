// Package watch reports saved Elm sources under a directory tree.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"elmdiag/internal/logging"
)

// DefaultDebounce coalesces the burst of events one editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// DefaultIgnore lists directory names that are never watched.
var DefaultIgnore = []string{".git", "elm-stuff", "node_modules"}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a batch is delivered; 0 means DefaultDebounce.
	Debounce time.Duration
	// Ignore names directories to skip; nil means DefaultIgnore.
	Ignore []string
	Logger *log.Logger
}

// Watcher delivers batches of saved *.elm paths.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   map[string]struct{}
	logger   *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// New starts watching root and every non-ignored directory below it.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     abs,
		fsw:      fsw,
		debounce: opts.Debounce,
		ignore:   make(map[string]struct{}),
		logger:   opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = logging.Default()
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	for _, name := range ignore {
		w.ignore[name] = struct{}{}
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run delivers batches to onSave until ctx is done or the watcher is closed.
// A batch lists each path once, in the order it was first saved. onSave runs
// on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onSave func(paths []string)) error {
	var (
		pending []string
		seen    = make(map[string]struct{})
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	flush := func() {
		if len(pending) > 0 {
			batch := pending
			pending = nil
			clear(seen)
			onSave(batch)
		}
		timerC = nil
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			flush()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.FieldError, err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path, ok := w.accept(ev)
			if !ok {
				continue
			}
			if _, dup := seen[path]; !dup {
				seen[path] = struct{}{}
				pending = append(pending, path)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		}
	}
}

// Close stops the watcher. Run returns once its event channels close.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

// accept filters raw events down to written Elm sources. New directories are
// added to the watch set on the way.
func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch directory", logging.FieldFile, ev.Name, logging.FieldError, err)
			}
			return "", false
		}
	}
	if !IsElmSource(ev.Name) || w.ignored(ev.Name) {
		return "", false
	}
	return ev.Name, true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// исчезнувшие каталоги не мешают обходу
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			if _, skip := w.ignore[d.Name()]; skip {
				return filepath.SkipDir
			}
		}
		w.logger.Debug("watching", logging.FieldFile, path)
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if _, skip := w.ignore[part]; skip {
			return true
		}
	}
	return false
}

// IsElmSource reports whether path names an Elm module.
func IsElmSource(path string) bool {
	return filepath.Ext(path) == ".elm"
}
