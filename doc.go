// Package pref is a persistent key-value preference store for desktop
// applications. It keeps a single JSON document on disk, addresses nested
// values with dot-notation paths, writes atomically, raises per-key change
// notifications, and detects edits made by other processes through a
// debounced filesystem watch. Ordered, version-gated migrations bring an
// old document up to the current schema on construction.
//
// Two hazards are deliberate and documented rather than fixed:
//
//   - A file that exists but does not parse as a JSON object is treated as
//     an empty store. The malformed data is discarded on the next save.
//   - Nothing serializes read-modify-write cycles between processes that
//     share a file. Concurrent mutations are last-writer-wins; only the
//     atomicity of a single save is guaranteed.
package pref
