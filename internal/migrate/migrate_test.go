package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutdated(t *testing.T) {
	outdated, err := Outdated("0.0.2", "2.0.0")
	require.NoError(t, err)
	assert.True(t, outdated)

	outdated, err = Outdated("2.0.0", "2.0.0")
	require.NoError(t, err)
	assert.False(t, outdated)

	outdated, err = Outdated("3.0.0", "2.0.0")
	require.NoError(t, err)
	assert.False(t, outdated)

	_, err = Outdated("not-a-version", "2.0.0")
	assert.Error(t, err)
}

func TestPlanSelectsHalfOpenRange(t *testing.T) {
	plan, err := Plan("0.0.2", "2.0.0", []string{"1.0.0", "4.0.0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0"}, plan)
}

func TestPlanSortsAscending(t *testing.T) {
	plan, err := Plan("0.0.0", "3.0.0", []string{"2.0.0", "0.5.0", "1.10.0", "1.2.0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.5.0", "1.2.0", "1.10.0", "2.0.0"}, plan)
}

func TestPlanExcludesRunningIncludesTarget(t *testing.T) {
	plan, err := Plan("1.0.0", "2.0.0", []string{"1.0.0", "2.0.0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0"}, plan)
}

func TestPlanEmpty(t *testing.T) {
	plan, err := Plan("2.0.0", "2.0.0", []string{"1.0.0"})
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlanInvalidMigrationKey(t *testing.T) {
	_, err := Plan("0.0.0", "2.0.0", []string{"banana"})
	assert.Error(t, err)
}
