// Package rotation computes who owns which chore in a given week.
//
// Every function here is a pure function of its arguments: the anchor week, the
// cycle length, the ordered member list, the bundles and sole-responsibility
// tasks, and an explicit target date. Nothing reads the clock or keeps state
// between calls, so results are safe to cache and to compute concurrently.
package rotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/week"
)

// Unassigned is returned for a sole-responsibility task nobody is responsible for.
const Unassigned = "Unassigned"

var (
	ErrInvalidCycleLength = errors.New("cycle length must be positive")
	ErrDuplicateTitle     = errors.New("chore title used twice")
)

// Index returns the zero-based rotation position of target's week relative to
// anchor's week. Weeks before the anchor wrap backwards, so the result is always
// in [0, cycleLength).
func Index(anchor, target time.Time, cycleLength int) (int, error) {
	if cycleLength <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCycleLength, cycleLength)
	}
	if err := week.Validate(anchor); err != nil {
		return 0, fmt.Errorf("anchor: %w", err)
	}
	if err := week.Validate(target); err != nil {
		return 0, fmt.Errorf("target week: %w", err)
	}
	return floorMod(week.Between(anchor, target), cycleLength), nil
}

func floorMod(a, n int) int {
	return ((a % n) + n) % n
}
