package launcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns file events under the watched directories into
// debounced reload triggers, filtered by extension.
type Watcher struct {
	fsw      *fsnotify.Watcher
	exts     map[string]struct{}
	debounce time.Duration
	reloads  chan string
	log      *zap.Logger
}

// NewWatcher watches dirs recursively. exts restricts triggering to
// the given file extensions (".py" style); empty means any file.
// Directories that do not exist are skipped with a warning; at least
// one must be watchable.
func NewWatcher(dirs, exts []string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		exts:     make(map[string]struct{}, len(exts)),
		debounce: debounce,
		reloads:  make(chan string, 1),
		log:      log,
	}
	for _, ext := range exts {
		w.exts[strings.ToLower(ext)] = struct{}{}
	}

	var watched int
	for _, dir := range dirs {
		n, err := w.addRecursive(dir)
		if err != nil {
			w.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched += n
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, errors.New("no watchable directories")
	}

	go w.loop()
	return w, nil
}

// Reloads delivers one value per debounced burst of relevant events;
// the value is the last path seen.
func (w *Watcher) Reloads() <-chan string {
	return w.reloads
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) (int, error) {
	var n int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// New subdirectories join the watch.
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(ev.Name)
				}
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			select {
			case w.reloads <- pending:
			default:
				// A reload is already queued; this burst rides along.
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(ev.Name))]
	return ok
}
