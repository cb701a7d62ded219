package importer

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pmills/discobase/internal/logger"
)

// scanWatcher watches the album directories of a completed scan so the
// progress endpoint can report that the library changed on disk since
// the last import. fsnotify does not recurse, so each album directory
// is registered individually.
type scanWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

func newScanWatcher(job *JobTracker, root string, albumDirs []string) (*scanWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := append([]string{root}, albumDirs...)
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logger.Debug("Scan watcher: cannot watch %s: %v", dir, err)
		}
	}

	w := &scanWatcher{watcher: fw, done: make(chan struct{})}
	go w.loop(job)
	return w, nil
}

func (w *scanWatcher) loop(job *JobTracker) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				job.ChangeDetected()
				logger.Debug("Scan watcher: change detected: %s", event)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("Scan watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *scanWatcher) stop() {
	w.once.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

// startWatcher replaces any previous watcher with one covering the
// just-scanned tree.
func (f *FileImporter) startWatcher(root string, albumDirs []string) {
	w, err := newScanWatcher(f.Job, root, albumDirs)
	if err != nil {
		logger.Warn("Scan watcher unavailable: %v", err)
		return
	}
	f.watcherMu.Lock()
	old := f.watcher
	f.watcher = w
	f.watcherMu.Unlock()
	if old != nil {
		old.stop()
	}
}

// stopWatcher tears down the watcher from a previous scan.
func (f *FileImporter) stopWatcher() {
	f.watcherMu.Lock()
	w := f.watcher
	f.watcher = nil
	f.watcherMu.Unlock()
	if w != nil {
		w.stop()
	}
}
