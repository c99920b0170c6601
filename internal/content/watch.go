package content

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher reloads the content directory on change and publishes the new
// store through a Holder. A failed reload keeps the previous store.
type Watcher struct {
	dir      string
	holder   *Holder
	log      *slog.Logger
	debounce time.Duration

	// OnReload is called after every reload attempt.
	OnReload func(s *Store, err error)
}

func NewWatcher(dir string, holder *Holder, log *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		holder:   holder,
		log:      log,
		debounce: 500 * time.Millisecond,
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create content watcher")
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "cannot watch %q", w.dir)
	}
	w.log.Info("watching content", "dir", w.dir)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug("content change", "file", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("content watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	s, err := LoadDir(w.dir)
	if err != nil {
		w.log.Error("content reload failed, keeping previous content", "error", err)
	} else {
		w.holder.Swap(s)
		w.log.Info("content reloaded", "pages", s.Len())
	}
	if w.OnReload != nil {
		w.OnReload(s, err)
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
