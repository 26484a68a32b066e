package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/raulk/clock"
	"github.com/samber/lo"

	"github.com/shll/contractsync/pkg/config/app"
)

// ResultFunc receives the outcome of every sync started by Watch.
type ResultFunc func(*Report, error)

// Watch syncs once, then syncs again each time a contract's ABI file is
// written. Bursts of changes within the debounce window produce a single run.
// Runs never overlap. Watch returns when ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, onResult ResultFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := mapset.NewThreadUnsafeSet(WatchedFiles(s.cfg)...)

	// Parent directories, not the files: a file replaced by rename drops its
	// own watch.
	dirs := lo.Uniq(lo.Map(watched.ToSlice(), func(p string, _ int) string { return filepath.Dir(p) }))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		log.Debugw("watching directory", "dir", dir)
	}

	onResult(s.Sync(ctx))

	log.Infow("watching abi files", "files", watched.Cardinality(), "debounce", s.cfg.Watch.Debounce)
	return s.watchLoop(ctx, watcher.Events, watcher.Errors, watched, onResult)
}

func (s *Syncer) watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, watched mapset.Set[string], onResult ResultFunc) error {
	var (
		timer *clock.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched.Contains(absPath(ev.Name)) {
				continue
			}
			log.Debugw("abi changed", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = s.clock.Timer(s.cfg.Watch.Debounce)
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warnw("watcher error", "error", err)

		case <-fire:
			timer, fire = nil, nil
			onResult(s.Sync(ctx))
		}
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// WatchedFiles returns the ABI paths a watch would observe.
func WatchedFiles(cfg app.SyncConfig) []string {
	return lo.Map(cfg.Contracts, func(c app.ContractConfig, _ int) string { return absPath(c.ABIPath) })
}
