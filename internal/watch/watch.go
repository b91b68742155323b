// Package watch detects external changes to the persisted document.
//
// The detector keeps a fingerprint of the last document this process wrote
// or observed and watches the containing directory with fsnotify. The
// directory is watched rather than the file itself because an atomic save
// deletes and recreates the file, which would drop a file-level watch. Raw
// events are debounced: one logical write produces several events, and the
// first one arms a timer while the rest are ignored. When the timer fires
// the document is re-read and the owner is notified only if the
// fingerprint actually moved.
package watch

import (
	"crypto/sha256"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the window during which raw filesystem events are
// coalesced into a single change check.
const DefaultDebounce = 100 * time.Millisecond

// Fingerprint returns a content digest of the serialized document. Two
// byte-identical documents always produce the same digest.
func Fingerprint(doc []byte) [sha256.Size]byte {
	return sha256.Sum256(doc)
}

// Detector watches the document's directory and reports content changes.
type Detector struct {
	path     string
	debounce time.Duration
	load     func() ([]byte, error)
	onChange func()
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool

	mu      sync.Mutex
	last    [sha256.Size]byte
	timer   *time.Timer
	pending bool
}

// NewDetector creates a detector for the document at path. load must
// return the current document bytes and onChange is invoked (from the
// detector's goroutine) whenever the persisted content no longer matches
// the recorded fingerprint.
func NewDetector(path string, debounce time.Duration, load func() ([]byte, error), onChange func(), logger zerolog.Logger) *Detector {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Detector{
		path:     path,
		debounce: debounce,
		load:     load,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Record remembers doc as the last content this process wrote or observed.
func (d *Detector) Record(doc []byte) {
	d.mu.Lock()
	d.last = Fingerprint(doc)
	d.mu.Unlock()
}

// HasChangedSince re-reads the document and reports whether its
// fingerprint differs from the last recorded one.
func (d *Detector) HasChangedSince() (bool, error) {
	doc, err := d.load()
	if err != nil {
		return false, err
	}
	fp := Fingerprint(doc)

	d.mu.Lock()
	defer d.mu.Unlock()
	return fp != d.last, nil
}

// Start begins watching the containing directory.
func (d *Detector) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(d.path)); err != nil {
		w.Close()
		return err
	}
	d.watcher = w
	d.started = true
	go d.run()
	return nil
}

func (d *Detector) run() {
	defer close(d.doneCh)

	for {
		select {
		case <-d.stopCh:
			return
		case _, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.schedule()
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error().Err(err).Str("path", d.path).Msg("watch error")
		}
	}
}

// schedule arms the debounce timer. Events that arrive while a timer is
// pending are dropped; the eventual content check covers them all.
func (d *Detector) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		return
	}
	d.pending = true
	d.timer = time.AfterFunc(d.debounce, d.check)
}

func (d *Detector) check() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()

	doc, err := d.load()
	if err != nil {
		d.logger.Warn().Err(err).Str("path", d.path).Msg("failed to re-read store after change event")
		return
	}
	fp := Fingerprint(doc)

	d.mu.Lock()
	changed := fp != d.last
	if changed {
		d.last = fp
	}
	d.mu.Unlock()

	if changed {
		d.logger.Debug().Str("path", d.path).Msg("external change detected")
		d.onChange()
	}
}

// Stop cancels any pending debounce timer, closes the watcher, and waits
// for the event goroutine to exit.
func (d *Detector) Stop() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
	d.mu.Unlock()

	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}

	if !d.started {
		return nil
	}
	err := d.watcher.Close()
	<-d.doneCh
	return err
}
