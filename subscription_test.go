package pref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	newValue any
	oldValue any
}

func TestOnDidChangeFiresPerTransition(t *testing.T) {
	s := newTestStore(t, Options{})

	var seen []transition
	dispose, err := s.OnDidChange("foo", func(newValue, oldValue any) {
		seen = append(seen, transition{newValue, oldValue})
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.Set("foo", "bar"))
	require.NoError(t, s.Set("foo", "bar")) // no transition
	require.NoError(t, s.Set("foo", "baz"))
	require.NoError(t, s.Delete("foo"))

	require.Len(t, seen, 3)
	assert.Equal(t, transition{"bar", nil}, seen[0])
	assert.Equal(t, transition{"baz", "bar"}, seen[1])
	assert.Equal(t, transition{nil, "baz"}, seen[2])
}

func TestOnDidChangeDeepComparison(t *testing.T) {
	s := newTestStore(t, Options{})

	require.NoError(t, s.Set("obj", map[string]any{"a": 1}))

	var fired int
	dispose, err := s.OnDidChange("obj", func(newValue, oldValue any) {
		fired++
	})
	require.NoError(t, err)
	defer dispose()

	// Structurally identical replacement: no notification.
	require.NoError(t, s.Set("obj", map[string]any{"a": 1}))
	assert.Zero(t, fired)

	require.NoError(t, s.Set("obj", map[string]any{"a": 2}))
	assert.Equal(t, 1, fired)
}

func TestOnDidChangeBaselineIsRegistrationTime(t *testing.T) {
	s := newTestStore(t, Options{})

	require.NoError(t, s.Set("foo", "initial"))
	require.NoError(t, s.Set("foo", "later"))

	var seen []transition
	dispose, err := s.OnDidChange("foo", func(newValue, oldValue any) {
		seen = append(seen, transition{newValue, oldValue})
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.Set("foo", "final"))

	require.Len(t, seen, 1)
	assert.Equal(t, transition{"final", "later"}, seen[0], "old value is the one at subscription time")
}

func TestDisposerRemovesOnlyItsSubscription(t *testing.T) {
	s := newTestStore(t, Options{})

	var a, b, other int
	disposeA, err := s.OnDidChange("foo", func(_, _ any) { a++ })
	require.NoError(t, err)
	_, err = s.OnDidChange("foo", func(_, _ any) { b++ })
	require.NoError(t, err)
	_, err = s.OnDidChange("bar", func(_, _ any) { other++ })
	require.NoError(t, err)

	require.NoError(t, s.Set("foo", 1))
	disposeA()
	require.NoError(t, s.Set("foo", 2))
	require.NoError(t, s.Set("bar", 1))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, other)
}

func TestNotificationOrderFollowsRegistration(t *testing.T) {
	s := newTestStore(t, Options{})

	var order []int
	for i := 0; i < 4; i++ {
		i := i
		_, err := s.OnDidChange("foo", func(_, _ any) {
			order = append(order, i)
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.Set("foo", 1))
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestOnDidAnyChange(t *testing.T) {
	s := newTestStore(t, Options{})

	var fired int
	var lastNew, lastOld map[string]any
	dispose, err := s.OnDidAnyChange(func(newDoc, oldDoc map[string]any) {
		fired++
		lastNew, lastOld = newDoc, oldDoc
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.Set("foo", "bar"))
	require.Equal(t, 1, fired)
	assert.Equal(t, map[string]any{"foo": "bar"}, lastNew)
	assert.Equal(t, map[string]any{}, lastOld)

	// A multi-key apply is one save and one notification.
	require.NoError(t, s.SetEntries(map[string]any{"a": 1, "b": 2}))
	assert.Equal(t, 2, fired)
}

func TestCallbackMayMutateStore(t *testing.T) {
	s := newTestStore(t, Options{})

	dispose, err := s.OnDidChange("source", func(newValue, _ any) {
		if newValue != nil {
			require.NoError(t, s.Set("derived", "from-callback"))
		}
	})
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.Set("source", "x"))

	v, err := s.Get("derived")
	require.NoError(t, err)
	assert.Equal(t, "from-callback", v)
}

func TestSubscriptionInvalidArguments(t *testing.T) {
	s := newTestStore(t, Options{})

	_, err := s.OnDidChange("", func(_, _ any) {})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.OnDidChange("foo", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.OnDidAnyChange(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
