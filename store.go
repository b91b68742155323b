package pref

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/npezza93/pref/internal/atomicfile"
	"github.com/npezza93/pref/internal/dotpath"
	"github.com/npezza93/pref/internal/event"
	"github.com/npezza93/pref/internal/migrate"
	"github.com/npezza93/pref/internal/watch"
)

// versionKey is the document key recording the last applied schema version.
const versionKey = "version"

var emptyDocument = []byte("{}")

// Store is a persistent JSON preference store. All operations read the
// current state from disk, so independent instances pointing at the same
// file converge; see the package documentation for the concurrency
// hazards that come with that.
type Store struct {
	opts     Options
	file     *atomicfile.Store
	bus      *event.Bus
	detector *watch.Detector
	logger   zerolog.Logger

	unsubscribe func()

	subMu     sync.Mutex
	subs      []*subscription
	nextSubID uint64
}

// New creates a store per opts: it loads the existing document (or starts
// from an empty one), seeds missing defaults with one save, applies any
// pending migrations, and starts the filesystem watch unless disabled.
func New(opts Options) (*Store, error) {
	o, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if o.Logger != nil {
		logger = *o.Logger
	}

	s := &Store{
		opts:   o,
		logger: logger,
		bus:    event.NewBus(),
		file:   atomicfile.New(o.filePath(), logger),
	}

	doc, err := s.file.Load()
	if err != nil {
		return nil, err
	}

	doc, seeded, err := applyDefaults(doc, o.Defaults)
	if err != nil {
		return nil, err
	}
	if seeded {
		if doc, err = s.file.Save(doc); err != nil {
			return nil, err
		}
	}

	if !o.DisableWatch {
		s.detector = watch.NewDetector(s.file.Path(), o.DebounceInterval, s.file.Load, s.externalChange, logger)
		s.detector.Record(doc)
	}
	s.unsubscribe = s.bus.Subscribe(event.DocumentChanged, func(event.Event) { s.fanOut() })

	if len(o.Migrations) > 0 {
		if err := s.runMigrations(); err != nil {
			s.bus.Close()
			return nil, err
		}
	}

	if s.detector != nil {
		if err := s.detector.Start(); err != nil {
			s.bus.Close()
			return nil, err
		}
	}

	return s, nil
}

// Get returns the value at path, freshly loaded from disk. A missing path
// yields the optional default (or nil); a key holding JSON null yields
// nil but still counts as present for Has.
func (s *Store) Get(path string, defaultValue ...any) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	doc, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	res := dotpath.Get(doc, path)
	if !res.Exists() {
		if len(defaultValue) > 0 {
			return defaultValue[0], nil
		}
		return nil, nil
	}
	return res.Value(), nil
}

// Has reports whether every segment along path resolves to an existing
// member.
func (s *Store) Has(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	doc, err := s.snapshot()
	if err != nil {
		return false, err
	}
	return dotpath.Has(doc, path), nil
}

// Set assigns value at path, creating intermediate objects as needed, and
// persists the document in one atomic save. Values that cannot be
// serialized to JSON are rejected with ErrInvalidArgument; use Delete to
// remove a key.
func (s *Store) Set(path string, value any) error {
	if path == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	doc, err := s.file.Load()
	if err != nil {
		return err
	}
	updated, err := dotpath.Set(doc, path, value)
	if err != nil {
		return fmt.Errorf("%w: value for %q: %v", ErrInvalidArgument, path, err)
	}
	return s.write(updated)
}

// SetEntries applies every path/value pair against one snapshot and
// persists the result with a single save and a single change
// notification. Application is all-or-nothing: the first invalid pair
// aborts before anything is written.
func (s *Store) SetEntries(entries map[string]any) error {
	if entries == nil {
		return fmt.Errorf("%w: entries must not be nil", ErrInvalidArgument)
	}
	if len(entries) == 0 {
		return nil
	}
	doc, err := s.file.Load()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if k == "" {
			return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		updated, err := dotpath.Set(doc, k, entries[k])
		if err != nil {
			return fmt.Errorf("%w: value for %q: %v", ErrInvalidArgument, k, err)
		}
		doc = updated
	}
	return s.write(doc)
}

// Delete removes the member at path. Deleting an absent path still saves
// and notifies.
func (s *Store) Delete(path string) error {
	if path == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	doc, err := s.file.Load()
	if err != nil {
		return err
	}
	updated, err := dotpath.Delete(doc, path)
	if err != nil {
		return err
	}
	return s.write(updated)
}

// Clear replaces the document with an empty one.
func (s *Store) Clear() error {
	return s.write(emptyDocument)
}

// Size returns the number of top-level keys.
func (s *Store) Size() (int, error) {
	doc, err := s.snapshot()
	if err != nil {
		return 0, err
	}
	n := 0
	gjson.ParseBytes(doc).ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n, nil
}

// Document returns the full current document.
func (s *Store) Document() (map[string]any, error) {
	doc, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// SetDocument replaces the whole document, saves, and notifies.
func (s *Store) SetDocument(doc map[string]any) error {
	if doc == nil {
		return s.write(emptyDocument)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return s.write(data)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.file.Path()
}

// OpenInEditor opens the backing file in $VISUAL or $EDITOR, falling back
// to the platform opener. Best effort: the viewer is started, not waited
// on.
func (s *Store) OpenInEditor() error {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return exec.Command(editor, s.Path()).Start()
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return exec.Command(editor, s.Path()).Start()
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", s.Path()).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", s.Path()).Start()
	default:
		return exec.Command("xdg-open", s.Path()).Start()
	}
}

// Close stops the filesystem watch, cancels any pending debounce timer,
// and drops all subscriptions. The store must not be used afterwards.
func (s *Store) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	var err error
	if s.detector != nil {
		err = s.detector.Stop()
	}
	if cerr := s.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

// write persists doc atomically, records its fingerprint, and raises one
// change notification.
func (s *Store) write(doc []byte) error {
	written, err := s.file.Save(doc)
	if err != nil {
		return err
	}
	if s.detector != nil {
		s.detector.Record(written)
	}
	s.bus.PublishSync(event.Event{Type: event.DocumentChanged})
	return nil
}

// snapshot loads the current document and runs the configured validator
// over it.
func (s *Store) snapshot() ([]byte, error) {
	doc, err := s.file.Load()
	if err != nil {
		return nil, err
	}
	if s.opts.Validator == nil {
		return doc, nil
	}

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	m, err = s.opts.Validator.Validate(m)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return out, nil
}

// externalChange runs on the detector goroutine when another process (or
// an external edit) moved the persisted content.
func (s *Store) externalChange() {
	s.bus.PublishSync(event.Event{Type: event.DocumentChanged})
}

// runMigrations brings the persisted document from its recorded version
// forward to ProjectVersion, applying each qualifying migration exactly
// once in ascending order. The version key is updated and persisted even
// when no migration matched the gap. A version field rolled back by an
// external writer will cause re-application; the gate is the recorded
// version only.
func (s *Store) runMigrations() error {
	doc, err := s.file.Load()
	if err != nil {
		return err
	}
	running := migrate.InitialVersion
	if res := dotpath.Get(doc, versionKey); res.Exists() {
		running = res.String()
	}

	outdated, err := migrate.Outdated(running, s.opts.ProjectVersion)
	if err != nil {
		return err
	}
	if !outdated {
		return nil
	}

	available := make([]string, 0, len(s.opts.Migrations))
	for v := range s.opts.Migrations {
		available = append(available, v)
	}
	plan, err := migrate.Plan(running, s.opts.ProjectVersion, available)
	if err != nil {
		return err
	}

	for _, version := range plan {
		s.logger.Info().Str("from", running).Str("to", version).Msg("applying migration")
		if err := s.opts.Migrations[version](s); err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}
		running = version
	}

	return s.Set(versionKey, s.opts.ProjectVersion)
}

// applyDefaults overlays loaded data on top of the defaults: a default
// only lands when its top-level key is absent from the document. Reports
// whether anything was seeded.
func applyDefaults(doc []byte, defaults map[string]any) ([]byte, bool, error) {
	if len(defaults) == 0 {
		return doc, false, nil
	}

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seeded := false
	for _, k := range keys {
		path := dotpath.Escape(k)
		if dotpath.Has(doc, path) {
			continue
		}
		updated, err := dotpath.Set(doc, path, defaults[k])
		if err != nil {
			return nil, false, fmt.Errorf("%w: default for %q: %v", ErrInvalidArgument, k, err)
		}
		doc = updated
		seeded = true
	}
	return doc, seeded, nil
}
