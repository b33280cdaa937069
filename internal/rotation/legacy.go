package rotation

import "fmt"

// FromWeekNumber converts a 1-based "week N" position, as stored by older
// schedules, to a rotation index.
func FromWeekNumber(weekNumber, cycleLength int) (int, error) {
	if cycleLength <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCycleLength, cycleLength)
	}
	return floorMod(weekNumber-1, cycleLength), nil
}

// WeekNumber is the 1-based label shown for a rotation index.
func WeekNumber(index int) int {
	return index + 1
}
