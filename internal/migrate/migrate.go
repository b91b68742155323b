// Package migrate plans which schema migrations apply to a stored
// document. Versions are semantic-version strings; planning is pure so the
// store can apply migration functions against itself in the returned
// order.
package migrate

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// InitialVersion is assumed for documents that never recorded a version.
const InitialVersion = "0.0.0"

// Outdated reports whether running is strictly below target.
func Outdated(running, target string) (bool, error) {
	rv, err := semver.NewVersion(running)
	if err != nil {
		return false, fmt.Errorf("invalid running version %q: %w", running, err)
	}
	tv, err := semver.NewVersion(target)
	if err != nil {
		return false, fmt.Errorf("invalid target version %q: %w", target, err)
	}
	return rv.LessThan(tv), nil
}

// Plan selects every version in available with running < version <= target
// and returns them in ascending semantic-version order. Each selected
// migration is meant to run exactly once, in order, so later migrations
// see the cumulative effect of earlier ones.
func Plan(running, target string, available []string) ([]string, error) {
	rv, err := semver.NewVersion(running)
	if err != nil {
		return nil, fmt.Errorf("invalid running version %q: %w", running, err)
	}
	tv, err := semver.NewVersion(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target version %q: %w", target, err)
	}

	selected := make(semver.Collection, 0, len(available))
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %q: %w", raw, err)
		}
		if v.GreaterThan(rv) && !v.GreaterThan(tv) {
			selected = append(selected, v)
		}
	}
	sort.Sort(selected)

	plan := make([]string, len(selected))
	for i, v := range selected {
		plan[i] = v.Original()
	}
	return plan, nil
}
