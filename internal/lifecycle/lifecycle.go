// Package lifecycle defines the objective status state machine.
package lifecycle

import (
	"fmt"

	"github.com/brandpulse/okrops/internal/model"
)

// IllegalTransitionError names the rejected status pair.
type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %q to %q", e.From, e.To)
}

// allowed maps each status to the statuses it may move to. Archived is
// terminal and reachable from every other status; that is also how delete
// is implemented.
var allowed = map[string][]string{
	model.ObjectiveStatusActive: {
		model.ObjectiveStatusPaused,
		model.ObjectiveStatusCompleted,
		model.ObjectiveStatusArchived,
	},
	model.ObjectiveStatusPaused: {
		model.ObjectiveStatusActive,
		model.ObjectiveStatusCompleted,
		model.ObjectiveStatusArchived,
	},
	model.ObjectiveStatusCompleted: {
		model.ObjectiveStatusArchived,
	},
	model.ObjectiveStatusArchived: {},
}

// Transition checks whether an objective may move from one status to
// another. A nil return means the transition is legal.
func Transition(from, to string) error {
	if !model.ValidStatus(from) || !model.ValidStatus(to) {
		return &IllegalTransitionError{From: from, To: to}
	}

	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}

	return &IllegalTransitionError{From: from, To: to}
}
