package pref

import (
	"iter"

	"github.com/tidwall/gjson"
)

// Entries returns a lazy sequence over the top-level document entries in
// persisted order. Each iteration takes a fresh snapshot when the range
// starts, so the sequence is restartable and independent iterations
// reflect the store state at their own start.
func (s *Store) Entries() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		doc, err := s.snapshot()
		if err != nil {
			s.logger.Warn().Err(err).Msg("iteration skipped, failed to load store")
			return
		}
		gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
			return yield(key.String(), value.Value())
		})
	}
}
