package docstore

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lectern/internal/checksum"
	"github.com/starford/lectern/internal/models"
)

const watchDebounce = 200 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	logger   *slog.Logger
	debounce time.Duration
}

// WithWatchLogger sets the logger used for watcher diagnostics.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = l }
}

// WithDebounce overrides the quiet period before changes are reported.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.debounce = d }
}

// Watch reports record files changed by other processes until ctx is
// cancelled. Changes made through this FS are not reported. Bursts are
// coalesced per kind: fn receives the record id when exactly one record of
// that kind changed, otherwise an empty id.
func (f *FS) Watch(ctx context.Context, fn func(Change)) error {
	return f.WatchWith(ctx, fn)
}

// WatchWith is Watch with options.
func (f *FS) WatchWith(ctx context.Context, fn func(Change), opts ...WatchOption) error {
	cfg := watchConfig{logger: slog.Default(), debounce: watchDebounce}
	for _, o := range opts {
		o(&cfg)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, k := range []models.Kind{models.KindNote, models.KindLecture, models.KindTag} {
		if err := w.Add(filepath.Join(f.root, string(k))); err != nil {
			return err
		}
	}
	cfg.logger.Info("watcher: started", slog.String("root", f.root))

	pending := make(map[models.Kind]map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(cfg.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(cfg.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			cfg.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			for kind, ids := range pending {
				ch := Change{Kind: kind}
				if len(ids) == 1 {
					for id := range ids {
						ch.ID = id
					}
				}
				fn(ch)
			}
			pending = make(map[models.Kind]map[string]struct{})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			kind, id, rel, ok := f.classify(ev.Name)
			if !ok {
				continue
			}
			if f.selfInflicted(ev, rel) {
				cfg.logger.Debug("watcher: own write skipped", slog.String("path", rel))
				continue
			}
			if pending[kind] == nil {
				pending[kind] = make(map[string]struct{})
			}
			pending[kind][id] = struct{}{}
			cfg.logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// classify maps an absolute event path to its record. Temp files and
// anything outside the kind directories are ignored.
func (f *FS) classify(abs string) (models.Kind, string, string, bool) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", "", "", false
	}
	rel = filepath.ToSlash(rel)
	dir, file := path.Split(rel)
	if strings.HasPrefix(file, ".") || !strings.HasSuffix(file, recordExt) {
		return "", "", "", false
	}
	kind := models.Kind(strings.TrimSuffix(dir, "/"))
	switch kind {
	case models.KindNote, models.KindLecture, models.KindTag:
	default:
		return "", "", "", false
	}
	return kind, strings.TrimSuffix(file, recordExt), rel, true
}

func (f *FS) selfInflicted(ev fsnotify.Event, rel string) bool {
	sum, err := checksum.File(ev.Name)
	if err != nil {
		return false
	}
	return f.ownChange(rel, sum)
}
