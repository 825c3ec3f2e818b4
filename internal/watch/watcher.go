package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
)

// Op is the kind of change observed in the source tree.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one source file modification attributed to a pack.
type Change struct {
	// Path is the absolute path of the changed file.
	Path string

	// Pack is the source subdirectory the file belongs to, which is the
	// pack name for managed packs.
	Pack string

	// Op is what happened to the file.
	Op Op
}

// Watcher emits Change events for YAML files under a pack source root.
// It wraps fsnotify with recursive directory tracking, ignore patterns,
// and content hashing that drops write events which did not change the
// file. Editors that write twice per save, or touch without editing,
// would otherwise trigger needless recompiles.
type Watcher struct {
	root   string
	ignore []string

	fsw    *fsnotify.Watcher
	events chan Change
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool

	hashMu sync.Mutex
	hashes map[string]uint64
}

// NewWatcher creates a watcher for the given source root. Ignore
// patterns are doublestar globs matched against slash-separated paths
// relative to the root. The watcher emits nothing until Start is
// called.
func NewWatcher(root string, ignore []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		root:   root,
		ignore: ignore,
		fsw:    fsw,
		events: make(chan Change, 100),
		errors: make(chan error, 10),
		done:   make(chan struct{}),
		hashes: make(map[string]uint64),
	}, nil
}

// Root returns the directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Events returns the channel of file changes.
func (w *Watcher) Events() <-chan Change {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start begins watching the source root and every directory below it.
// The content of existing files is hashed up front so that the first
// event for an unchanged file is dropped rather than reported.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher is already running")
	}
	if _, err := os.Stat(w.root); err != nil {
		return fmt.Errorf("failed to watch source root %s: %w", w.root, err)
	}
	if err := w.addTree(w.root, false); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop halts the watcher and closes its channels. Stopping a watcher
// that was never started is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return nil
}

// addTree registers dir and every directory below it with fsnotify.
// When emit is set, YAML files discovered along the way are reported as
// creates. Directories copied or unpacked into the source root raise a
// single create event for the top directory; walking it here is what
// surfaces the files inside.
func (w *Watcher) addTree(dir string, emit bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && (hidden(d.Name()) || w.ignored(rel)) {
				return fs.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if !watchable(path) || w.ignored(rel) {
			return nil
		}
		changed := w.contentChanged(path)
		if emit && changed {
			if pack := packName(rel); pack != "" {
				w.send(Change{Path: path, Pack: pack, Op: OpCreate})
			}
		}
		return nil
	})
}

// processEvents is the main event loop, translating fsnotify events
// into Change events.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	if hidden(filepath.Base(event.Name)) || w.ignored(rel) {
		return
	}

	// New directories join the watch set immediately so files inside
	// them are not invisible until the next restart.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.sendError(err)
			}
			return
		}
	}

	if !watchable(event.Name) {
		return
	}
	if change, ok := w.convertEvent(event, rel); ok {
		w.send(change)
	}
}

// convertEvent maps an fsnotify event to a Change, dropping events that
// carry no new content.
func (w *Watcher) convertEvent(event fsnotify.Event, rel string) (Change, bool) {
	pack := packName(rel)
	if pack == "" {
		return Change{}, false
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// The new name raises its own create event.
		op = OpDelete
	default:
		// Chmod does not change content.
		return Change{}, false
	}

	if op == OpDelete {
		w.forget(event.Name)
	} else if !w.contentChanged(event.Name) {
		return Change{}, false
	}
	return Change{Path: event.Name, Pack: pack, Op: op}, true
}

// contentChanged hashes the file and reports whether its content
// differs from the last observation. Unreadable files pass through as
// changed; a write may still be in flight and the compile that follows
// will read the settled content.
func (w *Watcher) contentChanged(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	sum := xxh3.Hash(data)

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	if prev, ok := w.hashes[path]; ok && prev == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

// forget drops the recorded hash for a deleted file.
func (w *Watcher) forget(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, path)
}

func (w *Watcher) send(change Change) {
	select {
	case w.events <- change:
	case <-w.done:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	case <-w.done:
	}
}

// ignored reports whether a root-relative path matches any ignore
// pattern.
func (w *Watcher) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// watchable reports whether the path is a YAML source file.
func watchable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// hidden reports whether a path component is a dotfile. Dot directories
// such as .git hold histories, not sources, and watching them floods
// the event loop.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// packName returns the first segment of a root-relative path, which is
// the pack directory the file lives under. Files directly at the root
// belong to no pack.
func packName(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.Index(rel, "/"); i > 0 {
		return rel[:i]
	}
	return ""
}
