// Package preview rebuilds the dev server state when view templates or
// style sources change on disk.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
	"git.home.luguber.info/inful/hxshowcase/internal/stylecfg"
	"git.home.luguber.info/inful/hxshowcase/internal/version"
)

// DefaultDebounce is how long the watcher waits for events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Reloader re-parses templates.
type Reloader interface {
	Reload() error
}

// Broadcaster announces a new server version to connected pages.
type Broadcaster interface {
	Broadcast(version string)
}

// Options configures a Watcher.
type Options struct {
	// Root is the directory content globs are resolved against.
	Root    string
	Targets []stylecfg.Target
	// ViewsDir is watched in addition to the glob base directories. Empty
	// when templates are embedded.
	ViewsDir string
	Renderer Reloader
	Hub      Broadcaster
	Recorder metrics.Recorder
	Debounce time.Duration
}

// Watcher turns filesystem changes into template reloads and reload
// broadcasts.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
	dirs    []string

	mu          sync.Mutex
	timer       *time.Timer
	lastVersion int64
	rebuildReq  chan struct{}
}

// New creates the fsnotify watcher and registers every watched directory
// recursively.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		opts:       opts,
		watcher:    fw,
		dirs:       WatchDirs(opts.Root, opts.Targets, opts.ViewsDir),
		rebuildReq: make(chan struct{}, 1),
	}
	for _, dir := range w.dirs {
		if err := addDirsRecursive(fw, dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	if len(w.dirs) == 0 {
		slog.Warn("dev watcher has nothing to watch", logfields.Path(opts.Root))
	}
	return w, nil
}

// Dirs returns the watched top-level directories.
func (w *Watcher) Dirs() []string { return slices.Clone(w.dirs) }

// WatchDirs returns the existing base directories of every target content
// glob plus viewsDir, deduplicated and sorted.
func WatchDirs(root string, targets []stylecfg.Target, viewsDir string) []string {
	var candidates []string
	for _, t := range targets {
		for _, pattern := range t.Content {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(strings.TrimSpace(pattern)))
			dir := filepath.FromSlash(base)
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(root, dir)
			}
			candidates = append(candidates, dir)
		}
	}
	if viewsDir != "" {
		candidates = append(candidates, viewsDir)
	}

	var dirs []string
	for _, dir := range candidates {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if st, err := os.Stat(abs); err != nil || !st.IsDir() {
			slog.Debug("skipping missing watch directory", logfields.Path(abs))
			continue
		}
		dirs = append(dirs, abs)
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// Run processes filesystem events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	go w.rebuildWorker(ctx)

	slog.Info("Watching for changes", slog.Int("dirs", len(w.dirs)))
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.trigger()
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// trigger restarts the debounce timer; the rebuild runs once events settle.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		select {
		case w.rebuildReq <- struct{}{}:
		default:
		}
	})
}

// rebuildWorker runs rebuilds one at a time. A request arriving during a
// rebuild waits in the buffered channel and runs right after it.
func (w *Watcher) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.rebuildReq:
			w.Rebuild()
		}
	}
}

// Rebuild reloads templates, announces a new server version and rescans
// the style targets. The version is broadcast even when reloading fails so
// the page shows the template error.
func (w *Watcher) Rebuild() {
	slog.Info("Change detected; reloading")
	if w.opts.Renderer != nil {
		if err := w.opts.Renderer.Reload(); err != nil {
			slog.Warn("template reload failed", logfields.Error(err))
		}
	}
	v := w.nextVersion()
	if w.opts.Hub != nil {
		w.opts.Hub.Broadcast(v)
	}
	slog.Info("Broadcast reload", logfields.Version(v))
	w.scanTargets()
}

// nextVersion returns the current time in milliseconds, bumped past the
// previous version when two rebuilds land in the same millisecond.
func (w *Watcher) nextVersion() string {
	now := time.Now().UnixMilli()
	w.mu.Lock()
	if now <= w.lastVersion {
		now = w.lastVersion + 1
	}
	w.lastVersion = now
	w.mu.Unlock()
	return version.ServerVersion(time.UnixMilli(now))
}

func (w *Watcher) scanTargets() {
	for _, t := range w.opts.Targets {
		report, err := stylecfg.Scan(w.opts.Root, t.Record)
		if err != nil {
			slog.Warn("style scan failed", logfields.Target(t.Name), logfields.Error(err))
			w.opts.Recorder.IncStyleCheck(t.Name, metrics.ResultFailed)
			continue
		}
		for _, class := range report.Redundant {
			slog.Info("safelist entry is detected statically",
				logfields.Target(t.Name), logfields.Class(class))
		}
		for _, glob := range report.Unmatched {
			slog.Warn("content glob matches no files",
				logfields.Target(t.Name), logfields.Glob(glob))
		}
		result := metrics.ResultSuccess
		if len(report.Unmatched) > 0 {
			result = metrics.ResultWarning
		}
		w.opts.Recorder.IncStyleCheck(t.Name, result)
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports events for hidden, editor temp and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
