package specwatch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/one-com/rotorlog"
)

// ApplyFunc installs a freshly parsed spec, e.g. (*rotorlog.Handle).SetNewSpec.
type ApplyFunc func(*rotorlog.FilterSpec)

// Watcher watches one spec file and re-parses it on change, debouncing
// bursts of filesystem events (editors commonly emit several per save)
// and re-arming after a remove-then-recreate cycle, per §4.9 step 3.
type Watcher struct {
	path    string
	apply   ApplyFunc
	errCh   rotorlog.ErrorChannel
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Start loads path (creating it from defaultText if missing), applies
// the initial spec, then launches the background watch loop. Stop shuts
// the watch down.
func Start(path, defaultText string, debounce time.Duration, apply ApplyFunc, errCh rotorlog.ErrorChannel) (*Watcher, error) {
	if errCh == nil {
		errCh = rotorlog.DiscardErrorChannel()
	}
	spec, err := Load(path, defaultText, errCh)
	if err != nil {
		return nil, err
	}
	apply(spec)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, rotorlog.Wrap(rotorlog.SpecFile, "create fsnotify watcher", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, rotorlog.Wrap(rotorlog.SpecFile, "watch spec file directory", err)
	}

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w := &Watcher{path: path, apply: apply, errCh: errCh, debounce: debounce, fsw: fsw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

// loop watches the containing directory (not the file itself) so a
// remove-then-recreate cycle - the common editor save pattern - is
// observed without needing to re-register a watch on the file inode.
func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	target := filepath.Base(w.path)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			w.reload()
			timerC = nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.errCh.Error("spec file watch: %v", err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	spec, err := parseFile(w.path, w.errCh)
	if err != nil {
		w.errCh.Warn("spec file reload failed, keeping previous spec: %v", err)
		return
	}
	w.apply(spec)
}

// Stop ends the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.fsw.Close()
}
