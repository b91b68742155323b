package pref

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/npezza93/pref/internal/dotpath"
)

// subscription tracks one registered listener and the last value it was
// notified with, so callbacks only fire on real transitions.
type subscription struct {
	id       uint64
	path     string
	all      bool
	lastVal  any
	lastDoc  map[string]any
	onValue  func(newValue, oldValue any)
	onChange func(newDoc, oldDoc map[string]any)
}

// OnDidChange registers callback for value transitions at path. The value
// present at registration time is the baseline: the first invocation
// compares against it, not against the document's state when the store was
// constructed. Callbacks fire only when the old and new values differ by
// deep structural comparison, and subscribers are notified in registration
// order. The returned disposer removes exactly this subscription.
func (s *Store) OnDidChange(path string, callback func(newValue, oldValue any)) (func(), error) {
	if path == "" {
		return nil, fmt.Errorf("%w: key must be a non-empty string", ErrInvalidArgument)
	}
	if callback == nil {
		return nil, fmt.Errorf("%w: callback must not be nil", ErrInvalidArgument)
	}

	doc, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.subMu.Lock()
	s.nextSubID++
	sub := &subscription{
		id:      s.nextSubID,
		path:    path,
		lastVal: dotpath.Get(doc, path).Value(),
		onValue: callback,
	}
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() { s.removeSubscription(sub.id) }, nil
}

// OnDidAnyChange registers callback for transitions of the whole document,
// with the same diff-gated, registration-ordered semantics as OnDidChange.
func (s *Store) OnDidAnyChange(callback func(newDoc, oldDoc map[string]any)) (func(), error) {
	if callback == nil {
		return nil, fmt.Errorf("%w: callback must not be nil", ErrInvalidArgument)
	}

	current, err := s.Document()
	if err != nil {
		return nil, err
	}

	s.subMu.Lock()
	s.nextSubID++
	sub := &subscription{
		id:       s.nextSubID,
		all:      true,
		lastDoc:  current,
		onChange: callback,
	}
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() { s.removeSubscription(sub.id) }, nil
}

func (s *Store) removeSubscription(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
}

// fanOut recomputes every subscribed value against one fresh snapshot and
// invokes the callbacks whose values actually transitioned. Per-sub state
// is updated before the callback runs and no lock is held during the
// call, so a callback may mutate the store; the nested fan-out then sees
// the already-updated baseline and terminates.
func (s *Store) fanOut() {
	doc, err := s.snapshot()
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping change notification, failed to load store")
		return
	}

	s.subMu.Lock()
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		if sub.all {
			s.fanOutAny(sub, doc)
			continue
		}

		newVal := dotpath.Get(doc, sub.path).Value()

		s.subMu.Lock()
		changed := !cmp.Equal(sub.lastVal, newVal)
		oldVal := sub.lastVal
		if changed {
			sub.lastVal = newVal
		}
		s.subMu.Unlock()

		if changed {
			sub.onValue(newVal, oldVal)
		}
	}
}

func (s *Store) fanOutAny(sub *subscription, doc []byte) {
	var newDoc map[string]any
	if err := json.Unmarshal(doc, &newDoc); err != nil {
		return
	}
	if newDoc == nil {
		newDoc = map[string]any{}
	}

	s.subMu.Lock()
	changed := !cmp.Equal(sub.lastDoc, newDoc)
	oldDoc := sub.lastDoc
	if changed {
		sub.lastDoc = newDoc
	}
	s.subMu.Unlock()

	if changed {
		sub.onChange(newDoc, oldDoc)
	}
}
