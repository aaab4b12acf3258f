// Package board keeps a project's columns densely numbered and checks how
// tasks are placed on the board.
package board

import (
	"fmt"

	"tracker/internal/models"
)

// PositionField is the request field position errors are reported on.
const PositionField = "position"

const (
	MsgPositionTooSmall = "You have to specify number greater than 0."
	MsgPositionTooBig   = "Number is too big."
)

// Shift moves every column whose position lies in [From, To] by Delta.
// An empty range (From > To) means nothing moves.
type Shift struct {
	From  int
	To    int
	Delta int
}

// Empty reports whether the shift touches no column.
func (s Shift) Empty() bool {
	return s.From > s.To || s.Delta == 0
}

// Apply returns the position p ends up at after the shift.
func (s Shift) Apply(p int) int {
	if !s.Empty() && p >= s.From && p <= s.To {
		return p + s.Delta
	}
	return p
}

func (s Shift) String() string {
	return fmt.Sprintf("[%d..%d]%+d", s.From, s.To, s.Delta)
}

// PlanInsert validates a new column at position in a board of count
// columns and returns the shift that opens the slot.
func PlanInsert(position, count int) (Shift, error) {
	if position < 1 {
		return Shift{}, tooSmall()
	}
	if position > count+1 {
		return Shift{}, tooBig()
	}
	return Shift{From: position, To: count, Delta: 1}, nil
}

// PlanDelete returns the shift that closes the gap left by removing the
// column at position from a board of count columns.
func PlanDelete(position, count int) Shift {
	return Shift{From: position + 1, To: count, Delta: -1}
}

// PlanMove validates moving a column from oldPos to newPos in a board of
// count columns. The moved column itself is not part of the shift. ok is
// false when nothing has to change.
func PlanMove(oldPos, newPos, count int) (shift Shift, ok bool, err error) {
	if newPos < 1 {
		return Shift{}, false, tooSmall()
	}
	if newPos > count {
		return Shift{}, false, tooBig()
	}
	switch {
	case newPos == oldPos:
		return Shift{}, false, nil
	case newPos > oldPos:
		return Shift{From: oldPos + 1, To: newPos, Delta: -1}, true, nil
	default:
		return Shift{From: newPos, To: oldPos - 1, Delta: 1}, true, nil
	}
}

// Dense reports whether positions are exactly 1..len(positions).
func Dense(positions []int) bool {
	seen := make([]bool, len(positions)+1)
	for _, p := range positions {
		if p < 1 || p > len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func tooSmall() error {
	return models.NewValidationError(PositionField, MsgPositionTooSmall)
}

func tooBig() error {
	return models.NewValidationError(PositionField, MsgPositionTooBig)
}
