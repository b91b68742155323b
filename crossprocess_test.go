package pref

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two instances sharing a file stand in for two OS processes: the watcher
// path they exercise is identical.

func TestExternalChangeNotifiesSubscriber(t *testing.T) {
	dir := t.TempDir()

	writer, err := New(Options{Dir: dir, DisableWatch: true})
	require.NoError(t, err)
	defer writer.Close()

	reader, err := New(Options{Dir: dir, DebounceInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer reader.Close()

	var mu sync.Mutex
	var seen []transition
	dispose, err := reader.OnDidChange("foo", func(newValue, oldValue any) {
		mu.Lock()
		seen = append(seen, transition{newValue, oldValue})
		mu.Unlock()
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, writer.Set("foo", "x"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 3*time.Second, 10*time.Millisecond, "debounced watch should surface the external write")

	mu.Lock()
	assert.Equal(t, transition{"x", nil}, seen[0])
	mu.Unlock()

	v, err := reader.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestOwnWritesDoNotEchoThroughTheWatch(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Options{Dir: dir, DebounceInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	var mu sync.Mutex
	fired := 0
	dispose, err := s.OnDidChange("foo", func(_, _ any) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.Set("foo", "bar"))

	// The local mutation notifies synchronously exactly once; the raw
	// filesystem events it produced must not trigger a second round after
	// the debounce window.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()
}

func TestLastWriterWins(t *testing.T) {
	dir := t.TempDir()

	a, err := New(Options{Dir: dir, DisableWatch: true})
	require.NoError(t, err)
	defer a.Close()

	b, err := New(Options{Dir: dir, DisableWatch: true})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set("k", "from-a"))
	require.NoError(t, b.Set("k", "from-b"))

	v, err := a.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-b", v)
}

func TestCloseStopsWatching(t *testing.T) {
	dir := t.TempDir()

	writer, err := New(Options{Dir: dir, DisableWatch: true})
	require.NoError(t, err)
	defer writer.Close()

	reader, err := New(Options{Dir: dir, DebounceInterval: 20 * time.Millisecond})
	require.NoError(t, err)

	var mu sync.Mutex
	fired := 0
	_, err = reader.OnDidChange("foo", func(_, _ any) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, reader.Close())
	require.NoError(t, writer.Set("foo", "x"))

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	assert.Zero(t, fired, "a closed store must not observe further changes")
	mu.Unlock()
}
